package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SergeiKhy/promo-links/internal/metrics"
	"github.com/SergeiKhy/promo-links/internal/models"
	"github.com/SergeiKhy/promo-links/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	defaultMaxRetries    = 3    // Максимальное количество попыток записи
	defaultRetryDelay    = 100 * time.Millisecond
	sinkTimeout          = 5 * time.Second
)

// ErrProcessorStopped событие пришло после остановки процессора
var ErrProcessorStopped = errors.New("процессор событий остановлен")

// EventEmitter принимает события жизненного цикла ссылок
type EventEmitter interface {
	Publish(ctx context.Context, event *models.LinkEvent) error
}

// EventProcessor асинхронно доставляет события во все подключённые приёмники
type EventProcessor interface {
	EventEmitter
	Start()
	Stop()
	Stats() ChannelStats
}

// ProcessorConfig настройки worker pool процессора событий
type ProcessorConfig struct {
	Workers    int
	Buffer     int
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultProcessorConfig конфигурация по умолчанию
var DefaultProcessorConfig = ProcessorConfig{
	Workers:    defaultWorkerCount,
	Buffer:     defaultChannelBuffer,
	MaxRetries: defaultMaxRetries,
	RetryDelay: defaultRetryDelay,
}

// eventProcessor реализация процессора событий с использованием Worker Pool
type eventProcessor struct {
	sinks   []repository.EventSink
	logger  *zap.Logger
	config  ProcessorConfig
	events  chan *models.LinkEvent // Канал для событий
	wg      sync.WaitGroup         // WaitGroup для ожидания завершения воркеров
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	// mu не даёт Publish положить событие в буфер после того, как воркеры его дочитали
	mu      sync.RWMutex
	stopped bool
}

// NewEventProcessor создаёт процессор событий. Без приёмников события просто отбрасываются воркерами.
func NewEventProcessor(cfg ProcessorConfig, logger *zap.Logger, sinks ...repository.EventSink) EventProcessor {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkerCount
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultChannelBuffer
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &eventProcessor{
		sinks:  sinks,
		logger: logger,
		config: cfg,
		events: make(chan *models.LinkEvent, cfg.Buffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start запускает worker pool
func (p *eventProcessor) Start() {
	p.started = true
	p.logger.Info("Запуск воркеров процессора событий",
		zap.Int("count", p.config.Workers),
		zap.Int("sinks", len(p.sinks)),
	)

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop останавливает worker pool, предварительно доставив уже принятые события
func (p *eventProcessor) Stop() {
	p.logger.Info("Остановка процессора событий...")
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.cancel()
	if p.started {
		p.wg.Wait()
	}
	p.logger.Info("Процессор событий остановлен")
}

func (p *eventProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер событий запущен", zap.Int("id", id))

	for {
		select {
		case <-p.ctx.Done():
			p.drain()
			p.logger.Debug("Воркер событий остановлен", zap.Int("id", id))
			return

		case event := <-p.events:
			p.reportBuffer()
			p.processEvent(event)
		}
	}
}

// drain дописывает то, что осталось в буфере после остановки
func (p *eventProcessor) drain() {
	for {
		select {
		case event := <-p.events:
			p.reportBuffer()
			p.processEvent(event)
		default:
			return
		}
	}
}

// processEvent доставляет одно событие во все приёмники с retry логикой
func (p *eventProcessor) processEvent(event *models.LinkEvent) {
	for _, sink := range p.sinks {
		p.deliver(sink, event)
	}
}

func (p *eventProcessor) deliver(sink repository.EventSink, event *models.LinkEvent) {
	var err error
	for i := 0; i < p.config.MaxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		err = sink.Append(ctx, event)
		cancel()
		if err == nil {
			return
		}

		if i < p.config.MaxRetries-1 {
			p.logger.Debug("Повторная попытка доставки события",
				zap.String("link_id", event.LinkID),
				zap.String("kind", string(event.Kind)),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * p.config.RetryDelay)
		}
	}

	p.logger.Error("Не удалось доставить событие после всех попыток",
		zap.String("link_id", event.LinkID),
		zap.String("kind", string(event.Kind)),
		zap.Error(err),
	)
}

// Publish отправляет событие в worker pool (неблокирующая операция)
func (p *eventProcessor) Publish(ctx context.Context, event *models.LinkEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		metrics.RecordEventDropped()
		p.logger.Warn("Процессор событий остановлен, событие потеряно",
			zap.String("link_id", event.LinkID),
			zap.String("kind", string(event.Kind)),
		)
		return ErrProcessorStopped
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.events <- event:
		p.reportBuffer()
		return nil
	default:
		// Канал заполнен: теряем событие, но не задерживаем запрос
		metrics.RecordEventDropped()
		p.logger.Warn("Буфер канала событий заполнен, событие потеряно",
			zap.String("link_id", event.LinkID),
			zap.String("kind", string(event.Kind)),
		)
		return nil
	}
}

func (p *eventProcessor) reportBuffer() {
	metrics.SetEventBufferUsed(p.Stats().BufferUsed)
}

// Stats возвращает статистику канала для мониторинга
func (p *eventProcessor) Stats() ChannelStats {
	return ChannelStats{
		BufferSize:  cap(p.events),
		BufferUsed:  len(p.events),
		WorkerCount: p.config.Workers,
	}
}

// ChannelStats статистика канала worker pool
type ChannelStats struct {
	BufferSize  int `json:"buffer_size"`  // Общая ёмкость канала
	BufferUsed  int `json:"buffer_used"`  // Текущее использование
	WorkerCount int `json:"worker_count"` // Количество воркеров
}
