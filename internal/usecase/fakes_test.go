package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// =====================
// memStore: TxManagerのメモリ実装
// txは1つずつ実行し、fnがエラーを返したら開始前の状態に戻す。
// tx同士はここで直列化されるので、並行テストだけでは行ロックの有無を区別できない。
// 代わりにtx内の在庫減算・評価更新・レビュー保存は、同じtxでFindByIDForUpdate済みの
// 商品に対してだけ許し、ロック無しで書こうとしたらエラーにする。
// =====================

type memStore struct {
	mu sync.Mutex

	products    map[int64]model.Product
	orders      []model.Order
	adjustments []model.InventoryAdjustment
	reviews     map[[2]int64]model.Review

	nextProductID int64
	nextOrderID   int64
	nextItemID    int64
	nextReviewID  int64

	//実行中のtxがFindByIDForUpdateでロックした商品（tx外ではnil）
	locked map[int64]bool

	//WithinTxの先頭でErrConflictを返す回数（デッドロックの代わり）
	conflicts int
	txCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]model.Product{},
		reviews:  map[[2]int64]model.Review{},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txCalls++
	if s.conflicts > 0 {
		s.conflicts--
		return fmt.Errorf("%w: deadlock detected", repo.ErrConflict)
	}

	s.locked = map[int64]bool{}
	defer func() { s.locked = nil }()

	snap := s.clone()
	if err := fn(memRepos{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	products      map[int64]model.Product
	orders        []model.Order
	adjustments   []model.InventoryAdjustment
	reviews       map[[2]int64]model.Review
	nextProductID int64
	nextOrderID   int64
	nextItemID    int64
	nextReviewID  int64
}

func (s *memStore) clone() memSnapshot {
	c := memSnapshot{
		products:      make(map[int64]model.Product, len(s.products)),
		orders:        append([]model.Order(nil), s.orders...),
		adjustments:   append([]model.InventoryAdjustment(nil), s.adjustments...),
		reviews:       make(map[[2]int64]model.Review, len(s.reviews)),
		nextProductID: s.nextProductID,
		nextOrderID:   s.nextOrderID,
		nextItemID:    s.nextItemID,
		nextReviewID:  s.nextReviewID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.reviews {
		c.reviews[k] = v
	}
	return c
}

func (s *memStore) restore(c memSnapshot) {
	s.products = c.products
	s.orders = c.orders
	s.adjustments = c.adjustments
	s.reviews = c.reviews
	s.nextProductID = c.nextProductID
	s.nextOrderID = c.nextOrderID
	s.nextItemID = c.nextItemID
	s.nextReviewID = c.nextReviewID
}

// テスト用の直接投入（tx外）
func (s *memStore) seed(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == 0 {
		s.nextProductID++
		p.ID = s.nextProductID
	} else if p.ID > s.nextProductID {
		s.nextProductID = p.ID
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	s.products[p.ID] = p
	return p
}

func (s *memStore) product(id int64) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) adjustmentList() []model.InventoryAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.InventoryAdjustment(nil), s.adjustments...)
}

func (s *memStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCalls
}

// tx内の書き込みは行ロック済みの商品に限る
func (s *memStore) requireLock(productID int64) error {
	if s.locked != nil && !s.locked[productID] {
		return fmt.Errorf("product %d written without row lock", productID)
	}
	return nil
}

type memRepos struct{ s *memStore }

func (r memRepos) Orders() repo.OrderRepository         { return memOrders(r) }
func (r memRepos) OrderItems() repo.OrderItemRepository { return memOrderItems(r) }
func (r memRepos) Inventory() repo.InventoryRepository  { return memInventory(r) }
func (r memRepos) Products() repo.ProductRepository     { return memProducts(r) }
func (r memRepos) Reviews() repo.ReviewRepository       { return memReviews(r) }

// ---------------------
// products
// ---------------------

type memProducts struct{ s *memStore }

func (r memProducts) live(id int64) (model.Product, bool) {
	p, ok := r.s.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, false
	}
	return p, true
}

func (r memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.live(id)
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	if r.s.locked != nil {
		r.s.locked[id] = true
	}
	return p, nil
}

func (r memProducts) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	out := []model.Product{}
	for _, id := range ids {
		if p, ok := r.live(id); ok {
			out = append(out, p)
		}
	}
	//DBと同じく順序は保証しない
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memProducts) all() []model.Product {
	out := []model.Product{}
	for _, p := range r.s.products {
		if !p.DeletedAt.Valid {
			out = append(out, p)
		}
	}
	return out
}

func (r memProducts) ListByRating(ctx context.Context) ([]model.Product, error) {
	out := r.all()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memProducts) ListLatestExcluding(ctx context.Context, excludeIDs []int64, limit int) ([]model.Product, error) {
	excluded := map[int64]bool{}
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	out := []model.Product{}
	for _, p := range r.all() {
		if !excluded[p.ID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	r.s.nextProductID++
	p.ID = r.s.nextProductID
	r.s.products[p.ID] = p
	return p, nil
}

func (r memProducts) Update(ctx context.Context, id int64, u model.ProductUpdate) error {
	if _, err := u.Columns(); err != nil {
		return err
	}
	p, ok := r.live(id)
	if !ok {
		return repo.ErrNotFound
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	if u.Images != nil {
		p.Images = *u.Images
	}
	r.s.products[id] = p
	return nil
}

func (r memProducts) SoftDelete(ctx context.Context, id int64) error {
	p, ok := r.live(id)
	if !ok {
		return repo.ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	r.s.products[id] = p
	return nil
}

func (r memProducts) UpdateRating(ctx context.Context, id int64, rating float64, totalReviews int64) error {
	if err := r.s.requireLock(id); err != nil {
		return err
	}
	p, ok := r.live(id)
	if !ok {
		return repo.ErrNotFound
	}
	p.Rating = rating
	p.TotalReviews = totalReviews
	r.s.products[id] = p
	return nil
}

// ---------------------
// inventory
// ---------------------

type memInventory struct{ s *memStore }

func (r memInventory) DeductStock(ctx context.Context, productID int64, qty int64) (bool, error) {
	if err := r.s.requireLock(productID); err != nil {
		return false, err
	}
	p, ok := r.s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.s.products[productID] = p
	return true, nil
}

func (r memInventory) AppendAdjustments(ctx context.Context, adjustments []model.InventoryAdjustment) error {
	r.s.adjustments = append(r.s.adjustments, adjustments...)
	return nil
}

// ---------------------
// orders
// ---------------------

type memOrders struct{ s *memStore }

func (r memOrders) Create(ctx context.Context, order model.Order) (model.Order, error) {
	r.s.nextOrderID++
	order.ID = r.s.nextOrderID

	items := make([]model.OrderItem, len(order.Items))
	for i, it := range order.Items {
		r.s.nextItemID++
		it.ID = r.s.nextItemID
		it.OrderID = order.ID
		items[i] = it
	}
	order.Items = items

	r.s.orders = append(r.s.orders, order)
	return order, nil
}

func (r memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	for _, o := range r.s.orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r memOrders) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func (r memOrders) ListAll(ctx context.Context) ([]model.Order, error) {
	out := append([]model.Order{}, r.s.orders...)
	sortOrdersNewestFirst(out)
	return out, nil
}

func sortOrdersNewestFirst(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

type memOrderItems struct{ s *memStore }

func (r memOrderItems) SumQuantityByProduct(ctx context.Context) ([]repo.ProductSales, error) {
	sums := map[int64]int64{}
	for _, o := range r.s.orders {
		for _, it := range o.Items {
			sums[it.ProductID] += it.Quantity
		}
	}
	out := make([]repo.ProductSales, 0, len(sums))
	for id, q := range sums {
		out = append(out, repo.ProductSales{ProductID: id, Quantity: q})
	}
	return out, nil
}

// ---------------------
// reviews
// ---------------------

type memReviews struct{ s *memStore }

func (r memReviews) Upsert(ctx context.Context, review model.Review) error {
	if err := r.s.requireLock(review.ProductID); err != nil {
		return err
	}
	key := [2]int64{review.UserID, review.ProductID}
	if cur, ok := r.s.reviews[key]; ok {
		cur.Rating = review.Rating
		cur.Comment = review.Comment
		cur.UpdatedAt = review.UpdatedAt
		r.s.reviews[key] = cur
		return nil
	}
	r.s.nextReviewID++
	review.ID = r.s.nextReviewID
	r.s.reviews[key] = review
	return nil
}

func (r memReviews) AggregateByProductID(ctx context.Context, productID int64) (repo.ReviewAggregate, error) {
	var sum, count int64
	for _, rv := range r.s.reviews {
		if rv.ProductID == productID {
			sum += int64(rv.Rating)
			count++
		}
	}
	if count == 0 {
		return repo.ReviewAggregate{}, nil
	}
	return repo.ReviewAggregate{Average: float64(sum) / float64(count), Count: count}, nil
}

// tx外で使う商品リポジトリ（ProductUsecaseのCRUD用）
type memProductRepo struct{ s *memStore }

func (r memProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return memProducts{s: r.s}.FindByID(ctx, id)
}

func (r memProductRepo) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r memProductRepo) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return memProducts{s: r.s}.FindByIDs(ctx, ids)
}

func (r memProductRepo) ListByRating(ctx context.Context) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return memProducts{s: r.s}.ListByRating(ctx)
}

func (r memProductRepo) ListLatestExcluding(ctx context.Context, excludeIDs []int64, limit int) ([]model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return memProducts{s: r.s}.ListLatestExcluding(ctx, excludeIDs, limit)
}

func (r memProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return memProducts{s: r.s}.Create(ctx, p)
}

func (r memProductRepo) Update(ctx context.Context, id int64, u model.ProductUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return memProducts{s: r.s}.Update(ctx, id, u)
}

func (r memProductRepo) SoftDelete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return memProducts{s: r.s}.SoftDelete(ctx, id)
}

func (r memProductRepo) UpdateRating(ctx context.Context, id int64, rating float64, totalReviews int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return memProducts{s: r.s}.UpdateRating(ctx, id, rating, totalReviews)
}

// ---------------------
// favorites
// ---------------------

type memFavorites struct {
	mu  sync.Mutex
	set map[[2]int64]bool
}

func newMemFavorites() *memFavorites {
	return &memFavorites{set: map[[2]int64]bool{}}
}

func (f *memFavorites) Exists(ctx context.Context, userID, productID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set[[2]int64{userID, productID}], nil
}

func (f *memFavorites) Create(ctx context.Context, userID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set[[2]int64{userID, productID}] = true
	return nil
}

func (f *memFavorites) Delete(ctx context.Context, userID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.set, [2]int64{userID, productID})
	return nil
}

func (f *memFavorites) ListProductIDsByUserID(ctx context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []int64{}
	for k := range f.set {
		if k[0] == userID {
			ids = append(ids, k[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ---------------------
// ports
// ---------------------

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("evt-%d", g.n)
}

type EventPublisherMock struct{ mock.Mock }

func (m *EventPublisherMock) PublishOrderPlaced(ctx context.Context, event usecase.OrderPlacedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// 売れ筋キャッシュのメモリ実装。Redis実装と同じく世代ごとに値を持つ。
type memTopSellingCache struct {
	mu          sync.Mutex
	generation  int64
	entries     map[int64][]model.Product
	sets        int
	invalidates int

	//Setの直前に呼ばれる（計算とSetの間に割り込む操作を差し込む）
	beforeSet func()
}

func (c *memTopSellingCache) Get(ctx context.Context) (usecase.CachedTopSelling, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	products, ok := c.entries[c.generation]
	return usecase.CachedTopSelling{Generation: c.generation, Products: products, Hit: ok}, nil
}

func (c *memTopSellingCache) Set(ctx context.Context, generation int64, products []model.Product) error {
	if c.beforeSet != nil {
		hook := c.beforeSet
		c.beforeSet = nil
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[int64][]model.Product{}
	}
	c.entries[generation] = products
	c.sets++
	return nil
}

func (c *memTopSellingCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.invalidates++
	return nil
}

func (c *memTopSellingCache) hit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[c.generation]
	return ok
}

var (
	_ repo.TransactionManager     = (*memStore)(nil)
	_ repo.ProductRepository      = memProductRepo{}
	_ repo.FavoriteRepository     = (*memFavorites)(nil)
	_ usecase.TopSellingCache     = (*memTopSellingCache)(nil)
	_ usecase.OrderEventPublisher = (*EventPublisherMock)(nil)
)
