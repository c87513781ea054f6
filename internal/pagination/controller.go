// Package pagination держит курсор страницы и последнюю метаинформацию бэкенда.
package pagination

import (
	"context"
	"fmt"
	"sync"

	"github.com/xela07ax/fraudwatch-console/internal/domain"
	"github.com/xela07ax/fraudwatch-console/internal/engine"
)

// PageFetcher — источник страниц. Реализуется engine.Gateway.
type PageFetcher interface {
	FetchTransactions(ctx context.Context, q engine.TransactionQuery) (*domain.TransactionsPage, *engine.Snapshot, error)
}

// Controller — курсор по страницам одного списка (все транзакции или очередь проверки).
// Каждый запрос помечается поколением: ответ, обогнанный более поздним запросом, отбрасывается.
type Controller struct {
	fetcher PageFetcher
	base    engine.TransactionQuery

	mu      sync.Mutex
	page    int
	meta    *domain.PageMetadata
	snap    *engine.Snapshot
	current *domain.TransactionsPage
	gen     uint64
}

// New создает контроллер. base задает фильтры списка, номер страницы в нем игнорируется.
func New(fetcher PageFetcher, base engine.TransactionQuery) *Controller {
	base.Page = 0
	return &Controller{fetcher: fetcher, base: base, page: 1}
}

// Page — текущая страница (начиная с 1).
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Metadata возвращает последнюю полученную метаинформацию; ok=false, пока ничего не загружено.
func (c *Controller) Metadata() (domain.PageMetadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.meta == nil {
		return domain.PageMetadata{}, false
	}
	return *c.meta, true
}

// Snapshot — сырой ответ для текущей страницы (для сравнения свежести при загрузке пакета).
func (c *Controller) Snapshot() *engine.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Current — последняя принятая страница. Ответ, который больше не Current, обогнан более поздним запросом.
func (c *Controller) Current() *domain.TransactionsPage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Load запрашивает страницу n без проверки границ: используется для первой загрузки и обновления.
func (c *Controller) Load(ctx context.Context, n int) (*domain.TransactionsPage, error) {
	if n < 1 {
		n = 1
	}
	return c.fetch(ctx, n)
}

// Refresh перечитывает текущую страницу.
func (c *Controller) Refresh(ctx context.Context) (*domain.TransactionsPage, error) {
	return c.fetch(ctx, c.Page())
}

// Previous переходит на страницу назад. На первой странице — no-op: (nil, nil).
func (c *Controller) Previous(ctx context.Context) (*domain.TransactionsPage, error) {
	c.mu.Lock()
	if c.page <= 1 {
		c.mu.Unlock()
		return nil, nil
	}
	target := c.page - 1
	c.mu.Unlock()

	return c.fetch(ctx, target)
}

// Next переходит вперед, только если последняя метаинформация говорит has_next. Иначе (nil, nil).
func (c *Controller) Next(ctx context.Context) (*domain.TransactionsPage, error) {
	c.mu.Lock()
	if c.meta == nil || !c.meta.HasNext {
		c.mu.Unlock()
		return nil, nil
	}
	target := c.page + 1
	c.mu.Unlock()

	return c.fetch(ctx, target)
}

// Goto переходит на страницу n, если она существует по последней метаинформации.
func (c *Controller) Goto(ctx context.Context, n int) (*domain.TransactionsPage, error) {
	c.mu.Lock()
	if c.meta == nil || !c.meta.Contains(n) {
		total := 0
		if c.meta != nil {
			total = c.meta.TotalPages
		}
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %d of %d", domain.ErrPageOutOfRange, n, total)
	}
	c.mu.Unlock()

	return c.fetch(ctx, n)
}

// Apply принимает страницу, полученную в обход контроллера (результат загрузки пакета).
// Запросы, начатые до Apply, после него считаются устаревшими.
func (c *Controller) Apply(page *domain.TransactionsPage, snap *engine.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.set(page, snap, 1)
}

func (c *Controller) fetch(ctx context.Context, n int) (*domain.TransactionsPage, error) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	q := c.base
	q.Page = n
	page, snap, err := c.fetcher.FetchTransactions(ctx, q)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil, fmt.Errorf("%w: page %d", domain.ErrStaleResponse, n)
	}
	c.set(page, snap, n)
	return page, nil
}

func (c *Controller) set(page *domain.TransactionsPage, snap *engine.Snapshot, requested int) {
	meta := page.Pagination
	c.meta = &meta
	c.snap = snap
	c.current = page
	c.page = requested
	if meta.CurrentPage > 0 {
		c.page = meta.CurrentPage
	}
}
