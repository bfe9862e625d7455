package service

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/config"
	"github.com/SergeiKhy/linkpulse/internal/models"
	"go.uber.org/zap"
)

// Значения по умолчанию для worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	defaultMaxRetries    = 3    // Максимальное количество попыток записи
	recordTimeout        = 5 * time.Second
)

// ClickProcessor асинхронно записывает клики, не задерживая редирект
type ClickProcessor interface {
	Start()
	Stop()
	Enqueue(ctx context.Context, event *models.ClickEvent) error
	ChannelStats() ChannelStats
}

// clickProcessor реализация процессора кликов с использованием Worker Pool
type clickProcessor struct {
	recorder     ClickRecorder
	logger       *zap.Logger
	clickChannel chan *models.ClickEvent // Канал для событий кликов
	workerCount  int                     // Количество воркеров
	maxRetries   int
	backoff      time.Duration
	wg           sync.WaitGroup // WaitGroup для ожидания завершения воркеров
	ctx          context.Context
	cancel       context.CancelFunc
}

func NewClickProcessor(recorder ClickRecorder, cfg config.ClicksConfig, logger *zap.Logger) ClickProcessor {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkerCount
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultChannelBuffer
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &clickProcessor{
		recorder:     recorder,
		logger:       logger,
		clickChannel: make(chan *models.ClickEvent, cfg.BufferSize),
		workerCount:  cfg.Workers,
		maxRetries:   cfg.MaxRetries,
		backoff:      100 * time.Millisecond,
	}
}

// Start запускает worker pool
func (p *clickProcessor) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("Запуск воркеров процессора кликов", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop дожидается обработки уже принятых событий и останавливает воркеры
func (p *clickProcessor) Stop() {
	p.logger.Info("Остановка процессора кликов...")
	close(p.clickChannel)
	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("Процессор кликов остановлен")
}

// worker обрабатывает события кликов из канала
func (p *clickProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер кликов запущен", zap.Int("id", id))

	for event := range p.clickChannel {
		p.processClick(event)
	}

	p.logger.Debug("Воркер кликов остановлен", zap.Int("id", id))
}

// processClick обрабатывает одно событие клика с retry логикой
func (p *clickProcessor) processClick(event *models.ClickEvent) {
	var err error
	for i := 0; i < p.maxRetries; i++ {
		ctx, cancel := context.WithTimeout(p.ctx, recordTimeout)
		_, err = p.recorder.Record(ctx, event.LinkID, event.IPAddress, event.UserAgent)
		cancel()
		if err == nil {
			return
		}

		if i < p.maxRetries-1 {
			p.logger.Debug("Повторная попытка записи клика",
				zap.String("short_code", event.ShortCode),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * p.backoff)
		}
	}

	p.logger.Error("Не удалось записать клик после всех попыток",
		zap.String("short_code", event.ShortCode),
		zap.Error(err),
	)
}

// Enqueue отправляет событие клика в worker pool (неблокирующая операция)
func (p *clickProcessor) Enqueue(ctx context.Context, event *models.ClickEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.clickChannel <- event:
		return nil
	default:
		// Канал заполнен, логируем предупреждение, но не блокируем запрос
		p.logger.Warn("Буфер канала кликов заполнен, событие потеряно",
			zap.String("short_code", event.ShortCode),
		)
		return nil
	}
}

// ChannelStats возвращает статистику канала для мониторинга
func (p *clickProcessor) ChannelStats() ChannelStats {
	return ChannelStats{
		BufferSize:  cap(p.clickChannel),
		BufferUsed:  len(p.clickChannel),
		WorkerCount: p.workerCount,
	}
}

// ChannelStats статистика канала worker pool
type ChannelStats struct {
	BufferSize  int `json:"buffer_size"`  // Общая ёмкость канала
	BufferUsed  int `json:"buffer_used"`  // Текущее использование
	WorkerCount int `json:"worker_count"` // Количество воркеров
}
