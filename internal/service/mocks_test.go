package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// snapshotter is implemented by mocks whose state a memTx rolls back
type snapshotter interface {
	snapshot() (restore func())
}

// memTx imitates a transaction over in-memory mocks: state is restored when fn fails
type memTx struct {
	stores []snapshotter
	calls  int
}

func newMemTx(stores ...snapshotter) *memTx {
	return &memTx{stores: stores}
}

func (m *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	restores := make([]func(), 0, len(m.stores))
	for _, s := range m.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// Users

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) add(user *domain.User) *domain.User {
	m.users[user.Email] = user
	return user
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	existing, err := m.FindByID(ctx, user.ID)
	if err != nil {
		return err
	}
	m.users[existing.Email] = user
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	delete(m.users, user.Email)
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context, search string, page, pageSize int) ([]*domain.User, int, error) {
	out := []*domain.User{}
	for _, user := range m.users {
		if search == "" || strings.Contains(user.Email, search) {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return paginate(out, page, pageSize), len(out), nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	for _, token := range m.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

type mockPasswordResetRepository struct {
	resets map[string]*domain.PasswordReset
}

func newMockPasswordResetRepository() *mockPasswordResetRepository {
	return &mockPasswordResetRepository{resets: make(map[string]*domain.PasswordReset)}
}

func (m *mockPasswordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	m.resets[reset.Token] = reset
	return nil
}

func (m *mockPasswordResetRepository) FindByToken(ctx context.Context, token string) (*domain.PasswordReset, error) {
	reset, ok := m.resets[token]
	if !ok {
		return nil, repository.ErrPasswordResetNotFound
	}
	return reset, nil
}

func (m *mockPasswordResetRepository) MarkUsed(ctx context.Context, token string, usedAt time.Time) error {
	reset, ok := m.resets[token]
	if !ok {
		return repository.ErrPasswordResetNotFound
	}
	reset.UsedAt = &usedAt
	return nil
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// Catalog

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func copyProduct(p *domain.Product) *domain.Product {
	cp := *p
	return &cp
}

func (m *mockProductRepository) snapshot() func() {
	saved := make(map[uuid.UUID]*domain.Product, len(m.products))
	for id, p := range m.products {
		saved[id] = copyProduct(p)
	}
	return func() { m.products = saved }
}

func (m *mockProductRepository) add(p *domain.Product) *domain.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = domain.ProductStatusActive
	}
	if p.Slug == "" {
		p.Slug = domain.Slugify(p.Name)
	}
	m.products[p.ID] = copyProduct(p)
	return p
}

func (m *mockProductRepository) stockOf(id uuid.UUID) int {
	return m.products[id].Stock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	for _, p := range m.products {
		if p.Slug == product.Slug {
			return repository.ErrProductSlugExists
		}
	}
	m.products[product.ID] = copyProduct(product)
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	for _, p := range m.products {
		if p.Slug == product.Slug && p.ID != product.ID {
			return repository.ErrProductSlugExists
		}
	}
	m.products[product.ID] = copyProduct(product)
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return copyProduct(p), nil
}

func (m *mockProductRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug {
			return copyProduct(p), nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return m.FindByID(ctx, id)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	inCategory := func(p *domain.Product) bool {
		if len(filter.CategoryIDs) == 0 {
			return true
		}
		if p.CategoryID == nil {
			return false
		}
		for _, id := range filter.CategoryIDs {
			if id == *p.CategoryID {
				return true
			}
		}
		return false
	}

	out := []*domain.Product{}
	for _, p := range m.products {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if !inCategory(p) {
			continue
		}
		out = append(out, copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, filter.Page, filter.PageSize), len(out), nil
}

func (m *mockProductRepository) Related(ctx context.Context, product *domain.Product, limit int) ([]*domain.Product, error) {
	out := []*domain.Product{}
	for _, p := range m.products {
		if p.ID != product.ID && p.CategoryID != nil && product.CategoryID != nil && *p.CategoryID == *product.CategoryID && p.IsActive() {
			out = append(out, copyProduct(p))
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	n := 0
	for _, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	p, ok := m.products[id]
	if !ok || p.Stock < quantity {
		return repository.ErrInsufficientStock
	}
	p.Stock -= quantity
	p.Sold += quantity
	return nil
}

func (m *mockProductRepository) RestoreStock(ctx context.Context, id uuid.UUID, quantity int) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock += quantity
	p.Sold -= quantity
	if p.Sold < 0 {
		p.Sold = 0
	}
	return nil
}

func (m *mockProductRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, numReviews int) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Rating = rating
	p.NumReviews = numReviews
	return nil
}

type mockReviewRepository struct {
	reviews map[uuid.UUID]*domain.Review
}

func newMockReviewRepository() *mockReviewRepository {
	return &mockReviewRepository{reviews: make(map[uuid.UUID]*domain.Review)}
}

func (m *mockReviewRepository) snapshot() func() {
	saved := make(map[uuid.UUID]*domain.Review, len(m.reviews))
	for id, r := range m.reviews {
		saved[id] = r
	}
	return func() { m.reviews = saved }
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	for _, r := range m.reviews {
		if r.ProductID == review.ProductID && r.UserID == review.UserID {
			return repository.ErrReviewAlreadyExists
		}
	}
	m.reviews[review.ID] = review
	return nil
}

func (m *mockReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	return r, nil
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.Review, error) {
	out := []*domain.Review{}
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.reviews[id]; !ok {
		return repository.ErrReviewNotFound
	}
	delete(m.reviews, id)
	return nil
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) add(name string, parent *domain.Category) *domain.Category {
	c := &domain.Category{ID: uuid.New(), Name: name, Slug: domain.Slugify(name), Active: true}
	if parent != nil {
		id := parent.ID
		c.ParentID = &id
	}
	m.categories[c.ID] = c
	return c
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	for _, c := range m.categories {
		if c.Slug == category.Slug {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	for _, c := range m.categories {
		if c.Slug == category.Slug && c.ID != category.ID {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	out := []*domain.Category{}
	for _, c := range m.categories {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, repository.ErrCategoryNotFound
}

func (m *mockCategoryRepository) CountChildren(ctx context.Context, id uuid.UUID) (int, error) {
	n := 0
	for _, c := range m.categories {
		if c.ParentID != nil && *c.ParentID == id {
			n++
		}
	}
	return n, nil
}

// Carts, coupons, orders

type mockCartRepository struct {
	carts map[uuid.UUID]*domain.Cart
	ttl   time.Duration
	now   func() time.Time
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{
		carts: make(map[uuid.UUID]*domain.Cart),
		ttl:   domain.CartTTL,
		now:   time.Now,
	}
}

func copyCart(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Items = append(domain.CartItems{}, c.Items...)
	if c.Coupon != nil {
		coupon := *c.Coupon
		cp.Coupon = &coupon
	}
	return &cp
}

func (m *mockCartRepository) snapshot() func() {
	saved := make(map[uuid.UUID]*domain.Cart, len(m.carts))
	for id, c := range m.carts {
		saved[id] = copyCart(c)
	}
	return func() { m.carts = saved }
}

func (m *mockCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	for _, c := range m.carts {
		if c.UserID != nil && *c.UserID == userID {
			return copyCart(c), nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (m *mockCartRepository) FindBySession(ctx context.Context, sessionID string) (*domain.Cart, error) {
	for _, c := range m.carts {
		if c.SessionID != "" && c.SessionID == sessionID {
			return copyCart(c), nil
		}
	}
	return nil, repository.ErrCartNotFound
}

func (m *mockCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	for _, c := range m.carts {
		if c.ID == cart.ID {
			continue
		}
		if cart.UserID != nil && c.UserID != nil && *c.UserID == *cart.UserID {
			return repository.ErrCartConflict
		}
		if cart.SessionID != "" && c.SessionID == cart.SessionID {
			return repository.ErrCartConflict
		}
	}
	cart.Recalculate()
	cart.Touch(m.now(), m.ttl)
	m.carts[cart.ID] = copyCart(cart)
	return nil
}

func (m *mockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.carts[id]; !ok {
		return repository.ErrCartNotFound
	}
	delete(m.carts, id)
	return nil
}

func (m *mockCartRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	for id, c := range m.carts {
		if c.UserID != nil && *c.UserID == userID {
			delete(m.carts, id)
		}
	}
	return nil
}

func (m *mockCartRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, c := range m.carts {
		if !c.ExpiresAt.After(now) {
			delete(m.carts, id)
			n++
		}
	}
	return n, nil
}

type mockCouponRepository struct {
	coupons map[uuid.UUID]*domain.Coupon
}

func newMockCouponRepository() *mockCouponRepository {
	return &mockCouponRepository{coupons: make(map[uuid.UUID]*domain.Coupon)}
}

func (m *mockCouponRepository) snapshot() func() {
	saved := make(map[uuid.UUID]*domain.Coupon, len(m.coupons))
	for id, c := range m.coupons {
		cp := *c
		saved[id] = &cp
	}
	return func() { m.coupons = saved }
}

func (m *mockCouponRepository) add(c *domain.Coupon) *domain.Coupon {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = domain.CouponStatusActive
	}
	if c.ExpiryDate.IsZero() {
		c.ExpiryDate = time.Now().Add(24 * time.Hour)
	}
	c.Code = domain.NormalizeCouponCode(c.Code)
	cp := *c
	m.coupons[c.ID] = &cp
	return c
}

func (m *mockCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	for _, c := range m.coupons {
		if c.Code == coupon.Code {
			return repository.ErrCouponAlreadyExists
		}
	}
	cp := *coupon
	m.coupons[coupon.ID] = &cp
	return nil
}

func (m *mockCouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	if _, ok := m.coupons[coupon.ID]; !ok {
		return repository.ErrCouponNotFound
	}
	for _, c := range m.coupons {
		if c.Code == coupon.Code && c.ID != coupon.ID {
			return repository.ErrCouponAlreadyExists
		}
	}
	cp := *coupon
	m.coupons[coupon.ID] = &cp
	return nil
}

func (m *mockCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.coupons[id]; !ok {
		return repository.ErrCouponNotFound
	}
	delete(m.coupons, id)
	return nil
}

func (m *mockCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Coupon, error) {
	c, ok := m.coupons[id]
	if !ok {
		return nil, repository.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	code = domain.NormalizeCouponCode(code)
	for _, c := range m.coupons {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrCouponNotFound
}

func (m *mockCouponRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Coupon, int, error) {
	out := []*domain.Coupon{}
	for _, c := range m.coupons {
		out = append(out, c)
	}
	return paginate(out, page, pageSize), len(out), nil
}

func (m *mockCouponRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	c, ok := m.coupons[id]
	if !ok || (c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit) {
		return repository.ErrCouponUsageExceeded
	}
	c.UsedCount++
	return nil
}

type mockOrderRepository struct {
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = make([]*domain.OrderItem, len(o.Items))
	for i, item := range o.Items {
		it := *item
		cp.Items[i] = &it
	}
	return &cp
}

func (m *mockOrderRepository) snapshot() func() {
	saved := make(map[uuid.UUID]*domain.Order, len(m.orders))
	for id, o := range m.orders {
		saved[id] = copyOrder(o)
	}
	return func() { m.orders = saved }
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (m *mockOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return m.FindByID(ctx, id)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	out := []*domain.Order{}
	for _, o := range m.orders {
		if filter.UserID != nil && o.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, filter.Page, filter.PageSize), len(out), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	existing, ok := m.orders[order.ID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	existing.Status = order.Status
	existing.PaymentStatus = order.PaymentStatus
	existing.CancelReason = order.CancelReason
	existing.DeliveredAt = order.DeliveredAt
	existing.CancelledAt = order.CancelledAt
	existing.UpdatedAt = order.UpdatedAt
	return nil
}

// Wishlists, settings, dashboard

type mockWishlistRepository struct {
	wishlists map[uuid.UUID]*domain.Wishlist
	items     map[uuid.UUID][]uuid.UUID
	products  *mockProductRepository
}

func newMockWishlistRepository(products *mockProductRepository) *mockWishlistRepository {
	return &mockWishlistRepository{
		wishlists: make(map[uuid.UUID]*domain.Wishlist),
		items:     make(map[uuid.UUID][]uuid.UUID),
		products:  products,
	}
}

func (m *mockWishlistRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Wishlist, error) {
	for _, w := range m.wishlists {
		if w.UserID == userID {
			cp := *w
			cp.Products = []*domain.Product{}
			for _, id := range m.items[w.ID] {
				if p, err := m.products.FindByID(ctx, id); err == nil {
					cp.Products = append(cp.Products, p)
				}
			}
			return &cp, nil
		}
	}
	return nil, repository.ErrWishlistNotFound
}

func (m *mockWishlistRepository) Create(ctx context.Context, wishlist *domain.Wishlist) error {
	for _, w := range m.wishlists {
		if w.UserID == wishlist.UserID {
			return nil
		}
	}
	m.wishlists[wishlist.ID] = wishlist
	return nil
}

func (m *mockWishlistRepository) AddProduct(ctx context.Context, wishlistID, productID uuid.UUID) error {
	for _, id := range m.items[wishlistID] {
		if id == productID {
			return nil
		}
	}
	m.items[wishlistID] = append(m.items[wishlistID], productID)
	return nil
}

func (m *mockWishlistRepository) RemoveProduct(ctx context.Context, wishlistID, productID uuid.UUID) error {
	kept := []uuid.UUID{}
	for _, id := range m.items[wishlistID] {
		if id != productID {
			kept = append(kept, id)
		}
	}
	m.items[wishlistID] = kept
	return nil
}

func (m *mockWishlistRepository) Clear(ctx context.Context, wishlistID uuid.UUID) error {
	delete(m.items, wishlistID)
	return nil
}

type mockSettingsRepository struct {
	settings *domain.Settings
}

func (m *mockSettingsRepository) GetOrCreate(ctx context.Context, defaults domain.SettingsValues) (*domain.Settings, error) {
	if m.settings == nil {
		m.settings = &domain.Settings{ID: 1, Values: defaults, UpdatedAt: time.Now()}
	}
	cp := *m.settings
	return &cp, nil
}

func (m *mockSettingsRepository) Update(ctx context.Context, settings *domain.Settings) error {
	cp := *settings
	cp.ID = 1
	m.settings = &cp
	return nil
}

type mockDashboardRepository struct {
	lowStockThreshold int
	since             time.Time
	topLimit          int
}

func (m *mockDashboardRepository) Stats(ctx context.Context, lowStockThreshold int) (*domain.DashboardStats, error) {
	m.lowStockThreshold = lowStockThreshold
	return &domain.DashboardStats{OrdersByStatus: map[domain.OrderStatus]int{}}, nil
}

func (m *mockDashboardRepository) TopProducts(ctx context.Context, limit int) ([]*domain.TopProduct, error) {
	m.topLimit = limit
	return []*domain.TopProduct{}, nil
}

func (m *mockDashboardRepository) RevenueByDay(ctx context.Context, since time.Time) ([]*domain.DailyRevenue, error) {
	m.since = since
	return []*domain.DailyRevenue{}, nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
