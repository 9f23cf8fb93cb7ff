package overrides

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/techphorix/w-store-sub004/internal/client/api"
	"github.com/techphorix/w-store-sub004/internal/constants"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDebounce       = 300 * time.Millisecond
	defaultRefreshTimeout = 15 * time.Second
)

var (
	// ErrUnknownMetric 不支持的指标名称
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrInvalidSeller 卖家ID无效
	ErrInvalidSeller = errors.New("invalid seller id")
	// ErrNoPendingEdit 没有可重试的编辑
	ErrNoPendingEdit = errors.New("no pending edit")
	// ErrEngineClosed 引擎已关闭
	ErrEngineClosed = errors.New("override engine closed")
	// ErrForeignEdit 编辑由其他管理员发起
	ErrForeignEdit = errors.New("pending edit belongs to another admin")
)

// Backend 覆盖值相关的服务端调用
type Backend interface {
	PutOverride(ctx context.Context, sellerID uint, metric string, value decimal.Decimal) (*api.Override, error)
	ListOverrides(ctx context.Context, sellerID uint) ([]api.Override, error)
	SellerDashboard(ctx context.Context, sellerID uint) (*api.Snapshot, error)
}

// MetricView 单个指标的展示值
type MetricView struct {
	Name          string           `json:"name"`
	Value         decimal.Decimal  `json:"value"`
	Overridden    bool             `json:"overridden"`
	Pending       bool             `json:"pending"`
	State         EditState        `json:"state,omitempty"`
	LastError     string           `json:"last_error,omitempty"`
	EditedBy      uint             `json:"edited_by,omitempty"`
	PreviousValue *decimal.Decimal `json:"previous_value,omitempty"`
}

// View 服务端快照叠加本地待确认编辑
type View struct {
	SellerID  uint           `json:"seller_id"`
	Snapshot  *api.Snapshot  `json:"snapshot"`
	Overrides []api.Override `json:"overrides"`
	Metrics   []MetricView   `json:"metrics"`
	Pending   []PendingEdit  `json:"pending"`
}

// Options 引擎参数
// Actor 返回当前登录管理员ID（标准会话身份），用于标记编辑归属
type Options struct {
	Logger    *zap.SugaredLogger
	Actor     func() uint
	Debounce  time.Duration
	Now       func() time.Time
	OnRefresh func(sellerID uint, view *View, err error)
}

// Engine 覆盖值编辑与同步
type Engine struct {
	backend   Backend
	cache     *Cache
	log       *zap.SugaredLogger
	now       func() time.Time
	debounce  time.Duration
	onRefresh func(sellerID uint, view *View, err error)
	actor     func() uint

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	timers    map[uint]*time.Timer
	snapshots map[uint]*api.Snapshot
	closed    bool
}

// NewEngine 创建引擎
func NewEngine(backend Backend, cache *Cache, opts Options) *Engine {
	if cache == nil {
		cache = NewCache("")
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		backend:   backend,
		cache:     cache,
		log:       opts.Logger,
		now:       opts.Now,
		debounce:  opts.Debounce,
		onRefresh: opts.OnRefresh,
		actor:     opts.Actor,
		ctx:       ctx,
		cancel:    cancel,
		timers:    make(map[uint]*time.Timer),
		snapshots: make(map[uint]*api.Snapshot),
	}
	if e.log == nil {
		e.log = zap.NewNop().Sugar()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.debounce <= 0 {
		e.debounce = defaultDebounce
	}
	if e.actor == nil {
		e.actor = func() uint { return 0 }
	}
	return e
}

// Load 恢复上次未确认的编辑
func (e *Engine) Load() error {
	if err := e.cache.Load(); err != nil {
		return err
	}
	if restored := e.cache.All(); len(restored) > 0 {
		e.log.Infow("override_pending_restored", "count", len(restored))
	}
	return nil
}

// Pending 卖家的待确认编辑
func (e *Engine) Pending(sellerID uint) []PendingEdit {
	return e.cache.List(sellerID)
}

// Edit 写入本地缓存后提交到服务端
func (e *Engine) Edit(ctx context.Context, sellerID uint, metric string, value decimal.Decimal) (*api.Override, error) {
	metric, err := normalize(sellerID, metric)
	if err != nil {
		return nil, err
	}
	edit := PendingEdit{
		SellerID:   sellerID,
		MetricName: metric,
		Value:      constants.ClampMetricValue(metric, value),
		EditedBy:   e.actor(),
	}
	if previous, ok := e.cache.Get(sellerID, metric); ok {
		// 连续编辑保留首次编辑前的服务端值
		edit.PreviousValue = previous.PreviousValue
		if previous.EditedBy == edit.EditedBy {
			edit.Attempts = previous.Attempts
		}
	} else {
		edit.PreviousValue = e.lastKnownValue(sellerID, metric)
	}
	return e.submit(ctx, edit)
}

// Retry 以缓存中的值重新提交
func (e *Engine) Retry(ctx context.Context, sellerID uint, metric string) (*api.Override, error) {
	metric, err := normalize(sellerID, metric)
	if err != nil {
		return nil, err
	}
	edit, ok := e.cache.Get(sellerID, metric)
	if !ok {
		return nil, ErrNoPendingEdit
	}
	if current := e.actor(); edit.EditedBy != current {
		e.log.Warnw("override_retry_refused",
			"seller_id", sellerID,
			"metric_name", metric,
			"edited_by", edit.EditedBy,
			"actor_id", current,
		)
		return nil, ErrForeignEdit
	}
	return e.submit(ctx, edit)
}

// Discard 丢弃编辑，不通知服务端
func (e *Engine) Discard(sellerID uint, metric string) error {
	metric, err := normalize(sellerID, metric)
	if err != nil {
		return err
	}
	if _, ok := e.cache.Get(sellerID, metric); !ok {
		return ErrNoPendingEdit
	}
	var deleteErr error
	if !e.ifOpen(func() { deleteErr = e.cache.Delete(sellerID, metric) }) {
		return ErrEngineClosed
	}
	if deleteErr != nil {
		return deleteErr
	}
	e.log.Infow("override_pending_discarded", "seller_id", sellerID, "metric_name", metric)
	return nil
}

func (e *Engine) submit(ctx context.Context, edit PendingEdit) (*api.Override, error) {
	edit.State = StatePending
	edit.LastError = ""
	edit.EditedAt = e.now()
	edit.Attempts++
	if !e.ifOpen(func() { e.persist(edit) }) {
		return nil, ErrEngineClosed
	}

	// Close 同时取消进行中的提交
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.ctx, cancel)
	defer stop()

	entry, err := e.backend.PutOverride(callCtx, edit.SellerID, edit.MetricName, edit.Value)
	if err != nil {
		edit.State = StateFailed
		edit.LastError = err.Error()
		open := e.ifOpen(func() {
			if current, ok := e.cache.Get(edit.SellerID, edit.MetricName); ok && current.EditedAt.Equal(edit.EditedAt) {
				e.persist(edit)
			}
		})
		e.log.Warnw("override_submit_failed",
			"seller_id", edit.SellerID,
			"metric_name", edit.MetricName,
			"attempts", edit.Attempts,
			"error", err,
		)
		if !open {
			return nil, fmt.Errorf("%w: %w", ErrEngineClosed, err)
		}
		return nil, err
	}

	open := e.ifOpen(func() {
		if _, err := e.cache.DeleteIf(edit); err != nil {
			e.log.Warnw("override_pending_persist_failed", "seller_id", edit.SellerID, "error", err)
		}
	})
	e.log.Infow("override_submitted", "seller_id", edit.SellerID, "metric_name", edit.MetricName)
	if open {
		e.RequestRefresh(edit.SellerID)
	}
	return entry, nil
}

func (e *Engine) persist(edit PendingEdit) {
	if err := e.cache.Put(edit); err != nil {
		e.log.Warnw("override_pending_persist_failed", "seller_id", edit.SellerID, "error", err)
	}
}

// lastKnownValue 最近一次视图中的指标值
func (e *Engine) lastKnownValue(sellerID uint, metric string) *decimal.Decimal {
	e.mu.Lock()
	snapshot := e.snapshots[sellerID]
	e.mu.Unlock()
	if snapshot == nil {
		return nil
	}
	value, ok := snapshot.Value(metric)
	if !ok {
		return nil
	}
	return &value
}

// View 并发拉取快照与覆盖值列表，清除已被服务端确认的编辑后叠加剩余编辑
func (e *Engine) View(ctx context.Context, sellerID uint) (*View, error) {
	if sellerID == 0 {
		return nil, ErrInvalidSeller
	}
	var (
		snapshot  *api.Snapshot
		overrides []api.Override
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot, err = e.backend.SellerDashboard(gctx, sellerID)
		return err
	})
	g.Go(func() error {
		var err error
		overrides, err = e.backend.ListOverrides(gctx, sellerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = &api.Snapshot{SellerID: sellerID}
	}

	e.ifOpen(func() {
		e.snapshots[sellerID] = snapshot
		e.purgeConfirmed(sellerID, overrides)
	})
	pending := e.cache.List(sellerID)
	byMetric := make(map[string]PendingEdit, len(pending))
	for _, edit := range pending {
		byMetric[edit.MetricName] = edit
	}

	view := &View{
		SellerID:  sellerID,
		Snapshot:  snapshot,
		Overrides: overrides,
		Pending:   pending,
	}
	for _, metric := range constants.MetricNames() {
		value, _ := snapshot.Value(metric)
		item := MetricView{Name: metric, Value: value, Overridden: snapshot.IsOverridden(metric)}
		if edit, ok := byMetric[metric]; ok {
			item.Value = constants.ClampMetricValue(metric, edit.Value)
			item.Pending = true
			item.State = edit.State
			item.LastError = edit.LastError
			item.EditedBy = edit.EditedBy
			item.PreviousValue = edit.PreviousValue
		}
		view.Metrics = append(view.Metrics, item)
	}
	return view, nil
}

// purgeConfirmed 服务端已有相同值（按服务端规则修正后比较）且更新时间不早于编辑时间的编辑视为已确认
// 调用方需持有 e.mu
func (e *Engine) purgeConfirmed(sellerID uint, overrides []api.Override) {
	for _, entry := range overrides {
		edit, ok := e.cache.Get(sellerID, entry.MetricName)
		if !ok {
			continue
		}
		if !entry.OverrideValue.Equal(constants.ClampMetricValue(edit.MetricName, edit.Value)) {
			continue
		}
		// 服务端时间精度为秒
		if entry.UpdatedAt.Before(edit.EditedAt.Truncate(time.Second)) {
			continue
		}
		if removed, err := e.cache.DeleteIf(edit); err != nil {
			e.log.Warnw("override_pending_persist_failed", "seller_id", sellerID, "error", err)
		} else if removed {
			e.log.Infow("override_pending_confirmed", "seller_id", sellerID, "metric_name", edit.MetricName)
		}
	}
}

// RequestRefresh 请求刷新，静默期内的多次请求合并为一次
func (e *Engine) RequestRefresh(sellerID uint) {
	if sellerID == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if timer, ok := e.timers[sellerID]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(e.debounce, func() {
		e.mu.Lock()
		if e.closed || e.timers[sellerID] != timer {
			e.mu.Unlock()
			return
		}
		delete(e.timers, sellerID)
		e.wg.Add(1)
		e.mu.Unlock()
		defer e.wg.Done()
		e.refresh(sellerID)
	})
	e.timers[sellerID] = timer
}

func (e *Engine) refresh(sellerID uint) {
	ctx, cancel := context.WithTimeout(e.ctx, defaultRefreshTimeout)
	defer cancel()
	view, err := e.View(ctx, sellerID)
	if err != nil {
		e.log.Warnw("override_refresh_failed", "seller_id", sellerID, "error", err)
	}
	if e.onRefresh != nil && !e.isClosed() {
		e.onRefresh(sellerID, view, err)
	}
}

// Close 取消所有待执行的刷新并等待进行中的刷新结束
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for sellerID, timer := range e.timers {
		timer.Stop()
		delete(e.timers, sellerID)
	}
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// ifOpen 在引擎未关闭时执行 fn，关闭后的缓存变更一律丢弃
func (e *Engine) ifOpen(fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	fn()
	return true
}

func normalize(sellerID uint, metric string) (string, error) {
	if sellerID == 0 {
		return "", ErrInvalidSeller
	}
	metric = strings.ToLower(strings.TrimSpace(metric))
	if !constants.IsMetricName(metric) {
		return "", ErrUnknownMetric
	}
	return metric, nil
}
