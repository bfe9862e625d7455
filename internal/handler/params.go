package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/middleware"
	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// currentUser id из токена. Без него маршрут не должен был пропустить Authenticate
func currentUser(c *gin.Context) (int64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Требуется аутентификация"})
	}
	return id, ok
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		invalidRequest(c, fmt.Errorf("некорректный id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (models.Pagination, error) {
	p := models.Pagination{Page: 1, Limit: defaultPageLimit}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return p, fmt.Errorf("некорректный номер страницы %q", raw)
		}
		p.Page = page
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return p, fmt.Errorf("некорректный размер страницы %q", raw)
		}
		p.Limit = min(limit, maxPageLimit)
	}
	return p, nil
}

// optionalBool: отсутствующий параметр - nil
func optionalBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("параметр %s должен быть true или false", name)
	}
	return &v, nil
}

// optionalDate принимает RFC3339 или YYYY-MM-DD (UTC). Для даты без времени
// endOfDay сдвигает границу на конец дня
func optionalDate(c *gin.Context, name string, endOfDay bool) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: параметр %s: ожидается RFC3339 или YYYY-MM-DD", service.ErrInvalidArgument, name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
