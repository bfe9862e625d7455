package service

import (
	"strings"

	"github.com/SergeiKhy/linkpulse/internal/models"
)

// normalizeTags убирает пустые имена и повторы, сохраняя порядок
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}

// DiffTags: что удалить из current и что добавить, чтобы получить next.
// Общие теги не трогаются.
func DiffTags(current, next []string) models.TagDiff {
	current = normalizeTags(current)
	next = normalizeTags(next)

	inCurrent := make(map[string]struct{}, len(current))
	for _, tag := range current {
		inCurrent[tag] = struct{}{}
	}
	inNext := make(map[string]struct{}, len(next))
	for _, tag := range next {
		inNext[tag] = struct{}{}
	}

	diff := models.TagDiff{ToRemove: []string{}, ToAdd: []string{}}
	for _, tag := range current {
		if _, ok := inNext[tag]; !ok {
			diff.ToRemove = append(diff.ToRemove, tag)
		}
	}
	for _, tag := range next {
		if _, ok := inCurrent[tag]; !ok {
			diff.ToAdd = append(diff.ToAdd, tag)
		}
	}
	return diff
}
