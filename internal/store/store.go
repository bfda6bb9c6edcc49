// AngelaMos | 2026
// store.go

package store

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
)

const DefaultHistoryLimit = 50

// Store owns every domain entity. All mutations go through a single writer
// lock and callers only ever receive copies, so nothing outside the store
// can change state without holding it.
type Store struct {
	mu           sync.RWMutex
	historyLimit int
	nextID       int64

	users      map[string]*domain.User
	emailIndex map[string]string
	userOrder  []string

	messages   []domain.ChatMessage
	meetups    []domain.Meetup
	businesses moderatedList[domain.Business, *domain.Business]
	posts      moderatedList[domain.Post, *domain.Post]

	plans    []domain.Plan
	settings domain.Settings

	orders       map[string]domain.Order
	transactions []domain.Transaction
	ledgerIndex  map[string]int
}

type Option func(*Store)

func WithHistoryLimit(limit int) Option {
	return func(s *Store) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

func WithSettings(settings domain.Settings) Option {
	return func(s *Store) {
		s.settings = settings
	}
}

func WithPlans(plans []domain.Plan) Option {
	return func(s *Store) {
		s.plans = clonePlans(plans)
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		historyLimit: DefaultHistoryLimit,
		users:        make(map[string]*domain.User),
		emailIndex:   make(map[string]string),
		orders:       make(map[string]domain.Order),
		ledgerIndex:  make(map[string]int),
		settings:     DefaultSettings(),
		plans:        DefaultPlans(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) HistoryLimit() int {
	return s.historyLimit
}

func (s *Store) allocateID() int64 {
	s.nextID++
	return s.nextID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateUser(u domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createUserLocked(u)
}

func (s *Store) createUserLocked(u domain.User) (domain.User, error) {
	u.Email = normalizeEmail(u.Email)

	if _, exists := s.emailIndex[u.Email]; exists {
		return domain.User{}, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}
	if _, exists := s.users[u.ID]; exists {
		return domain.User{}, fmt.Errorf("create user: %w", core.ErrDuplicateKey)
	}

	stored := u
	s.users[u.ID] = &stored
	s.emailIndex[u.Email] = u.ID
	s.userOrder = append(s.userOrder, u.ID)

	return stored, nil
}

func (s *Store) UserByID(id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	return *u, nil
}

func (s *Store) UserByEmail(email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailIndex[normalizeEmail(email)]
	if !ok {
		return domain.User{}, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	return *s.users[id], nil
}

// UpdateUser applies fn to a copy of the user and commits it only when fn
// succeeds.
func (s *Store) UpdateUser(
	id string,
	fn func(u *domain.User) error,
) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("update user: %w", core.ErrNotFound)
	}

	next := *current
	if err := fn(&next); err != nil {
		return domain.User{}, err
	}

	next.ID = current.ID
	next.Email = current.Email
	*current = next

	return next, nil
}

// Users returns every account in registration order.
func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		users = append(users, *s.users[id])
	}
	return users
}

func (s *Store) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users)
}

// AppendMessage stamps msg with the next id and appends it to the chat
// history, evicting the oldest entries once the history limit is exceeded.
func (s *Store) AppendMessage(msg domain.ChatMessage) domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = s.allocateID()
	s.appendMessageLocked(msg)

	return msg
}

func (s *Store) appendMessageLocked(msg domain.ChatMessage) {
	s.messages = append(s.messages, msg)

	if over := len(s.messages) - s.historyLimit; over > 0 {
		n := copy(s.messages, s.messages[over:])
		clear(s.messages[n:])
		s.messages = s.messages[:n]
	}
}

func (s *Store) Messages() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.messages)
}

func (s *Store) CreateMeetup(m domain.Meetup) domain.Meetup {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.allocateID()
	s.meetups = append(s.meetups, m)

	return m
}

func (s *Store) Meetups() []domain.Meetup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.meetups)
}

// CreateBusiness always stores the submission as pending regardless of the
// status the caller set.
func (s *Store) CreateBusiness(b domain.Business) domain.Business {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = s.allocateID()
	b.Status = domain.StatusPending
	s.businesses.add(b)

	return b
}

func (s *Store) Business(id int64) (domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.businesses.find(id)
	if b == nil {
		return domain.Business{}, fmt.Errorf("get business: %w", core.ErrNotFound)
	}
	return *b, nil
}

func (s *Store) Businesses(status domain.Status) []domain.Business {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.businesses.withStatus(status)
}

func (s *Store) TransitionBusiness(
	id int64,
	fn TransitionFunc,
) (domain.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return transition(&s.businesses, id, fn, "business")
}

func (s *Store) CreatePost(p domain.Post) domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.allocateID()
	p.Status = domain.StatusPending
	s.posts.add(p)

	return p
}

func (s *Store) Post(id int64) (domain.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.posts.find(id)
	if p == nil {
		return domain.Post{}, fmt.Errorf("get post: %w", core.ErrNotFound)
	}
	return *p, nil
}

func (s *Store) Posts(status domain.Status) []domain.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.posts.withStatus(status)
}

func (s *Store) TransitionPost(
	id int64,
	fn TransitionFunc,
) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return transition(&s.posts, id, fn, "post")
}

func (s *Store) Plans() []domain.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return clonePlans(s.plans)
}

func (s *Store) Plan(id string) (domain.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.planLocked(id)
}

func (s *Store) planLocked(id string) (domain.Plan, error) {
	for _, p := range s.plans {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return domain.Plan{}, fmt.Errorf("get plan %q: %w", id, core.ErrNotFound)
}

// ReplacePlans swaps the whole plan list. The list is rejected as a unit if
// any id is empty or repeated, or any price is negative.
func (s *Store) ReplacePlans(plans []domain.Plan) ([]domain.Plan, error) {
	seen := make(map[string]struct{}, len(plans))
	for _, p := range plans {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("replace plans: empty plan id: %w", core.ErrInvalidInput)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf(
				"replace plans: negative price for %q: %w",
				p.ID,
				core.ErrInvalidInput,
			)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf(
				"replace plans: duplicate plan id %q: %w",
				p.ID,
				core.ErrInvalidInput,
			)
		}
		seen[p.ID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.plans = clonePlans(plans)
	return clonePlans(s.plans), nil
}

func (s *Store) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings
}

func (s *Store) UpdateSettings(patch domain.SettingsPatch) domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = s.settings.Merge(patch)
	return s.settings
}

func (s *Store) SaveOrder(o domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.ID]; exists {
		return fmt.Errorf("save order: %w", core.ErrDuplicateKey)
	}
	s.orders[o.ID] = o
	return nil
}

func (s *Store) Order(id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, fmt.Errorf("get order: %w", core.ErrNotFound)
	}
	return o, nil
}

type CaptureRequest struct {
	OrderID  string
	UserID   string
	PlanID   string
	Currency string
	At       time.Time
}

type CaptureResult struct {
	Transaction domain.Transaction
	User        domain.User
	Replayed    bool
}

// CapturePayment credits the plan to the user and appends the ledger entry
// in one critical section. An order id already in the ledger is never
// credited twice: the same user and plan get the original result back,
// anything else is a conflict.
func (s *Store) CapturePayment(req CaptureRequest) (CaptureResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.ledgerIndex[req.OrderID]; ok {
		tx := s.transactions[idx]
		if tx.UserID != req.UserID || tx.PlanID != req.PlanID {
			return CaptureResult{}, fmt.Errorf(
				"capture order %s: already captured: %w",
				req.OrderID,
				core.ErrConflict,
			)
		}
		u, ok := s.users[req.UserID]
		if !ok {
			return CaptureResult{}, fmt.Errorf("capture order: user: %w", core.ErrNotFound)
		}
		return CaptureResult{Transaction: tx, User: *u, Replayed: true}, nil
	}

	user, ok := s.users[req.UserID]
	if !ok {
		return CaptureResult{}, fmt.Errorf("capture order: user: %w", core.ErrNotFound)
	}

	plan, err := s.planLocked(req.PlanID)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("capture order: %w", err)
	}

	amount := plan.Price
	currency := req.Currency
	if order, ok := s.orders[req.OrderID]; ok {
		if order.UserID != req.UserID || order.PlanID != req.PlanID {
			return CaptureResult{}, fmt.Errorf(
				"capture order %s: order belongs to another user or plan: %w",
				req.OrderID,
				core.ErrConflict,
			)
		}
		amount = order.Amount
		currency = order.Currency
	}

	user.Tier = plan.ID
	user.UpdatedAt = req.At

	tx := domain.Transaction{
		ID:       req.OrderID,
		UserID:   user.ID,
		UserName: user.Name,
		PlanID:   plan.ID,
		Amount:   amount,
		Currency: currency,
		Date:     req.At,
	}
	s.ledgerIndex[tx.ID] = len(s.transactions)
	s.transactions = append(s.transactions, tx)

	return CaptureResult{Transaction: tx, User: *user}, nil
}

func (s *Store) Transactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.transactions)
}

type AdminStats struct {
	Users             int `json:"users"`
	Businesses        int `json:"businesses"`
	Meetups           int `json:"meetups"`
	PendingBusinesses int `json:"pending_businesses"`
	PendingPosts      int `json:"pending_posts"`
}

// Snapshot is the public read model used to (re)hydrate clients.
type Snapshot struct {
	Settings   domain.Settings      `json:"settings"`
	Plans      []domain.Plan        `json:"plans"`
	Messages   []domain.ChatMessage `json:"messages"`
	Meetups    []domain.Meetup      `json:"meetups"`
	Businesses []domain.Business    `json:"businesses"`
	Posts      []domain.Post        `json:"posts"`
	AdminStats *AdminStats          `json:"admin_stats,omitempty"`
}

func (s *Store) Snapshot(includeStats bool) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Settings:   s.settings,
		Plans:      clonePlans(s.plans),
		Messages:   nonNil(slices.Clone(s.messages)),
		Meetups:    nonNil(slices.Clone(s.meetups)),
		Businesses: nonNil(s.businesses.withStatus(domain.StatusApproved)),
		Posts:      nonNil(s.posts.withStatus(domain.StatusApproved)),
	}

	if includeStats {
		stats := s.statsLocked()
		snap.AdminStats = &stats
	}

	return snap
}

func (s *Store) Stats() AdminStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.statsLocked()
}

func (s *Store) statsLocked() AdminStats {
	return AdminStats{
		Users:             len(s.users),
		Businesses:        len(s.businesses.items),
		Meetups:           len(s.meetups),
		PendingBusinesses: s.businesses.count(domain.StatusPending),
		PendingPosts:      s.posts.count(domain.StatusPending),
	}
}

// FullState is the unfiltered admin view. Password hashes never leave the
// store because domain.User does not serialize them.
type FullState struct {
	Settings     domain.Settings      `json:"settings"`
	Plans        []domain.Plan        `json:"plans"`
	Users        []domain.User        `json:"users"`
	Messages     []domain.ChatMessage `json:"messages"`
	Meetups      []domain.Meetup      `json:"meetups"`
	Businesses   []domain.Business    `json:"businesses"`
	Posts        []domain.Post        `json:"posts"`
	Orders       []domain.Order       `json:"orders"`
	Transactions []domain.Transaction `json:"transactions"`
}

func (s *Store) FullState() FullState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		users = append(users, *s.users[id])
	}

	orders := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}
	slices.SortFunc(orders, func(a, b domain.Order) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return FullState{
		Settings:     s.settings,
		Plans:        clonePlans(s.plans),
		Users:        users,
		Messages:     nonNil(slices.Clone(s.messages)),
		Meetups:      nonNil(slices.Clone(s.meetups)),
		Businesses:   nonNil(slices.Clone(s.businesses.items)),
		Posts:        nonNil(slices.Clone(s.posts.items)),
		Orders:       orders,
		Transactions: nonNil(slices.Clone(s.transactions)),
	}
}

func clonePlans(plans []domain.Plan) []domain.Plan {
	out := make([]domain.Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.Clone())
	}
	return out
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
