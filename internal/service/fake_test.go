package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/repository"
)

// memRepo реализует Repository в памяти с транзакциями.
// LockUser, LockVendor и GetClaimForUpdate удерживают блокировку строки до конца транзакции,
// как SELECT ... FOR UPDATE в PostgreSQL. Ошибка внутри InTx откатывает изменения транзакции.
type memRepo struct {
	*memState

	txMu    sync.Mutex
	txCount int
	// replay: сколько раз откатить и повторить следующую транзакцию, как при serialization failure.
	replay int
}

type memState struct {
	mu sync.Mutex

	users     map[uuid.UUID]model.User
	vendors   map[uuid.UUID]model.Vendor
	entries   []model.LedgerEntry
	claims    map[uuid.UUID]model.Claim
	snapshots []model.DailyReportSnapshot
	runs      map[string]int
	rows      map[string]*sync.Mutex

	clock time.Time
	calls map[string]int

	// failOn задаёт ошибку, возвращаемую указанным методом.
	failOn map[string]error
}

func newMemRepo(now time.Time) *memRepo {
	return &memRepo{memState: &memState{
		users:   map[uuid.UUID]model.User{},
		vendors: map[uuid.UUID]model.Vendor{},
		claims:  map[uuid.UUID]model.Claim{},
		runs:    map[string]int{},
		rows:    map[string]*sync.Mutex{},
		clock:   now,
		calls:   map[string]int{},
		failOn:  map[string]error{},
	}}
}

var (
	_ Repository         = (*memRepo)(nil)
	_ repository.Querier = (*memTx)(nil)
)

func (r *memRepo) InTx(ctx context.Context, fn func(q repository.Querier) error) error {
	r.txMu.Lock()
	r.txCount++
	replay := r.replay
	r.replay = 0
	r.txMu.Unlock()

	for {
		tx := &memTx{memState: r.memState, held: map[string]*sync.Mutex{}}
		err := fn(tx)
		if err != nil || replay > 0 {
			tx.rollback()
		}
		tx.release()
		if err != nil {
			return err
		}
		if replay == 0 {
			return nil
		}
		replay--
	}
}

func (r *memRepo) Close() error { return nil }

func (r *memRepo) transactions() int {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return r.txCount
}

func (r *memRepo) replayNextTx(times int) {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.replay = times
}

// memTx выполняет запросы одной транзакции: держит блокировки строк и журнал отката.
type memTx struct {
	*memState

	held map[string]*sync.Mutex
	undo []func()
}

func (tx *memTx) lockRow(key string) {
	if _, ok := tx.held[key]; ok {
		return
	}
	tx.mu.Lock()
	m, ok := tx.rows[key]
	if !ok {
		m = &sync.Mutex{}
		tx.rows[key] = m
	}
	tx.mu.Unlock()

	m.Lock()
	tx.held[key] = m
}

func (tx *memTx) release() {
	for _, m := range tx.held {
		m.Unlock()
	}
}

func (tx *memTx) rollback() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
}

// pause отдаёт управление между чтением и записью, чтобы конкурирующие транзакции
// без блокировки строк успели прочитать одно и то же состояние.
func pause() {
	time.Sleep(time.Millisecond)
}

func (tx *memTx) LockUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	tx.lockRow("user:" + id.String())
	return tx.memState.LockUser(ctx, id)
}

func (tx *memTx) LockVendor(ctx context.Context, id uuid.UUID) error {
	tx.lockRow("vendor:" + id.String())
	return tx.memState.LockVendor(ctx, id)
}

func (tx *memTx) GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	tx.lockRow("claim:" + id.String())
	c, err := tx.memState.GetClaimForUpdate(ctx, id)
	pause()
	return c, err
}

func (tx *memTx) LedgerTotals(ctx context.Context, p model.Party, w model.Window) (model.LedgerTotals, error) {
	t, err := tx.memState.LedgerTotals(ctx, p, w)
	pause()
	return t, err
}

func (tx *memTx) PendingClaimPoints(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	pending, err := tx.memState.PendingClaimPoints(ctx, vendorID)
	pause()
	return pending, err
}

func (tx *memTx) CreateUser(ctx context.Context, u *model.User) error {
	if err := tx.memState.CreateUser(ctx, u); err != nil {
		return err
	}
	id := u.ID
	tx.undo = append(tx.undo, func() { delete(tx.users, id) })
	return nil
}

func (tx *memTx) CreateVendor(ctx context.Context, v *model.Vendor) error {
	if err := tx.memState.CreateVendor(ctx, v); err != nil {
		return err
	}
	id := v.ID
	tx.undo = append(tx.undo, func() { delete(tx.vendors, id) })
	return nil
}

func (tx *memTx) InsertEntry(ctx context.Context, e *model.LedgerEntry) error {
	if err := tx.memState.InsertEntry(ctx, e); err != nil {
		return err
	}
	id := e.ID
	tx.undo = append(tx.undo, func() {
		kept := tx.entries[:0]
		for _, existing := range tx.entries {
			if existing.ID != id {
				kept = append(kept, existing)
			}
		}
		tx.entries = kept
	})
	return nil
}

func (tx *memTx) InsertClaim(ctx context.Context, c *model.Claim) error {
	if err := tx.memState.InsertClaim(ctx, c); err != nil {
		return err
	}
	id := c.ID
	tx.undo = append(tx.undo, func() { delete(tx.claims, id) })
	return nil
}

func (tx *memTx) UpdateClaim(ctx context.Context, c *model.Claim) error {
	tx.mu.Lock()
	prev, ok := tx.claims[c.ID]
	tx.mu.Unlock()

	if err := tx.memState.UpdateClaim(ctx, c); err != nil {
		return err
	}
	if ok {
		tx.undo = append(tx.undo, func() { tx.claims[prev.ID] = prev })
	}
	return nil
}

func (tx *memTx) InsertSnapshot(ctx context.Context, snap *model.DailyReportSnapshot) error {
	if err := tx.memState.InsertSnapshot(ctx, snap); err != nil {
		return err
	}
	id := snap.ID
	tx.undo = append(tx.undo, func() {
		kept := tx.snapshots[:0]
		for _, existing := range tx.snapshots {
			if existing.ID != id {
				kept = append(kept, existing)
			}
		}
		tx.snapshots = kept
	})
	return nil
}

func (tx *memTx) MarkAccrualRun(ctx context.Context, day time.Time, granted int) (bool, error) {
	marked, err := tx.memState.MarkAccrualRun(ctx, day, granted)
	if err != nil || !marked {
		return marked, err
	}
	key := runKey(day)
	tx.undo = append(tx.undo, func() { delete(tx.runs, key) })
	return true, nil
}

// enter учитывает вызов и возвращает внедрённую ошибку. Вызывается под s.mu.
func (s *memState) enter(method string) error {
	s.calls[method]++
	return s.failOn[method]
}

func (s *memState) fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[method] = err
}

func (s *memState) callCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *memState) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *memState) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateUser"); err != nil {
		return err
	}
	for _, existing := range s.users {
		if existing.Username == u.Username || (u.EmpID != nil && existing.EmpID != nil && *existing.EmpID == *u.EmpID) {
			return repository.ErrUserExists
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = s.tick()
	s.users[u.ID] = *u
	return nil
}

func (s *memState) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetUser"); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (s *memState) LockUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("LockUser"); err != nil {
		return nil, err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (s *memState) ListEmployeesByEmpID(ctx context.Context, empIDs []string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListEmployeesByEmpID"); err != nil {
		return nil, err
	}
	wanted := map[string]bool{}
	for _, id := range empIDs {
		wanted[id] = true
	}
	var out []model.User
	for _, u := range s.users {
		if u.Role == model.RoleEmployee && u.EmpID != nil && wanted[*u.EmpID] {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].EmpID < *out[j].EmpID })
	return out, nil
}

func (s *memState) CreateVendor(ctx context.Context, v *model.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateVendor"); err != nil {
		return err
	}
	if _, ok := s.users[v.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	for _, existing := range s.vendors {
		if existing.Name == v.Name || existing.UserID == v.UserID {
			return repository.ErrVendorExists
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = s.tick()
	s.vendors[v.ID] = *v
	return nil
}

func (s *memState) GetVendor(ctx context.Context, id uuid.UUID) (*model.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetVendor"); err != nil {
		return nil, err
	}
	v, ok := s.vendors[id]
	if !ok {
		return nil, repository.ErrVendorNotFound
	}
	return &v, nil
}

func (s *memState) GetVendorByUser(ctx context.Context, userID uuid.UUID) (*model.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetVendorByUser"); err != nil {
		return nil, err
	}
	for _, v := range s.vendors {
		if v.UserID == userID {
			return &v, nil
		}
	}
	return nil, repository.ErrVendorNotFound
}

func (s *memState) FindVendor(ctx context.Context, ref string) (*model.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindVendor"); err != nil {
		return nil, err
	}
	for _, v := range s.vendors {
		if v.Name == ref || v.ID.String() == ref || v.UserID.String() == ref {
			return &v, nil
		}
	}
	return nil, repository.ErrVendorNotFound
}

func (s *memState) LockVendor(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("LockVendor"); err != nil {
		return err
	}
	if _, ok := s.vendors[id]; !ok {
		return repository.ErrVendorNotFound
	}
	return nil
}

func (s *memState) InsertEntry(ctx context.Context, e *model.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertEntry"); err != nil {
		return err
	}
	if e.Points == 0 || (e.UserID == nil && e.VendorID == nil) {
		return model.StoreError("insert ledger entry", errors.New("check constraint violation"))
	}
	if e.UserID != nil {
		if _, ok := s.users[*e.UserID]; !ok {
			return repository.ErrUserNotFound
		}
	}
	if e.VendorID != nil {
		if _, ok := s.vendors[*e.VendorID]; !ok {
			return repository.ErrVendorNotFound
		}
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = s.tick()
	s.entries = append(s.entries, *e)
	return nil
}

func belongs(e model.LedgerEntry, p model.Party) bool {
	switch p.Kind {
	case model.PartyEmployee:
		return e.UserID != nil && *e.UserID == p.ID
	case model.PartyVendor:
		return e.VendorID != nil && *e.VendorID == p.ID
	}
	return false
}

func (s *memState) LedgerTotals(ctx context.Context, p model.Party, w model.Window) (model.LedgerTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("LedgerTotals"); err != nil {
		return model.LedgerTotals{}, err
	}
	var t model.LedgerTotals
	for _, e := range s.entries {
		if !belongs(e, p) {
			continue
		}
		t.Net += e.Points
		if !w.Contains(e.CreatedAt) {
			continue
		}
		if e.Points > 0 {
			t.Positive += e.Points
		} else {
			t.Negative += e.Points
		}
		switch p.Kind {
		case model.PartyEmployee:
			if e.VendorID == nil && e.Points > 0 {
				t.Issuer += e.Points
			}
		case model.PartyVendor:
			if e.UserID == nil {
				t.Issuer += e.Points
			}
		}
	}
	return t, nil
}

func (s *memState) ListEntries(ctx context.Context, f model.EntryFilter) ([]model.EntryView, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListEntries"); err != nil {
		return nil, 0, err
	}

	var matched []model.LedgerEntry
	for _, e := range s.entries {
		if !belongs(e, f.Party) || !f.Window.Contains(e.CreatedAt) {
			continue
		}
		counterpart := e.VendorID
		if f.Party.Kind == model.PartyVendor {
			counterpart = e.UserID
		}
		if f.Source == model.SourceUsers && counterpart == nil {
			continue
		}
		if f.Source == model.SourceAdmin && counterpart != nil {
			continue
		}
		if f.Sign == model.SignPositive && e.Points <= 0 {
			continue
		}
		if f.Sign == model.SignNegative && e.Points >= 0 {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[f.Offset:]
	if len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	views := make([]model.EntryView, 0, len(matched))
	for _, e := range matched {
		v := model.EntryView{ID: e.ID, Points: e.Points, Description: e.Description, Date: e.CreatedAt}
		if f.Party.Kind == model.PartyEmployee {
			v.Name = "Admin"
			if e.VendorID != nil {
				v.Name = s.vendors[*e.VendorID].Name
			}
		} else {
			v.Name = "admin"
			if e.UserID != nil {
				v.Name = s.users[*e.UserID].Name
			}
		}
		views = append(views, v)
	}
	return views, total, nil
}

func (s *memState) ReportTotals(ctx context.Context, w model.Window) (repository.ReportSums, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ReportTotals"); err != nil {
		return repository.ReportSums{}, err
	}
	var sums repository.ReportSums
	var sent int64
	for _, e := range s.entries {
		if !w.Contains(e.CreatedAt) {
			continue
		}
		if e.VendorID == nil {
			sums.IssuedToEmployees += e.Points
		}
		if e.UserID != nil {
			sums.EmployeeNet += e.Points
		}
		if e.UserID != nil && e.VendorID != nil {
			sent += e.Points
		}
		if e.UserID == nil {
			sums.PaidToVendors += e.Points
		}
	}
	if sent < 0 {
		sent = -sent
	}
	sums.SentToVendors = sent
	return sums, nil
}

func (s *memState) SnapshotTotals(ctx context.Context) (model.DailyReportSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SnapshotTotals"); err != nil {
		return model.DailyReportSnapshot{}, err
	}
	var snap model.DailyReportSnapshot
	for _, e := range s.entries {
		if e.VendorID != nil {
			snap.VendorBalancePoints += e.Points
			if e.Points < 0 {
				snap.PointsRedeemedByEmployees -= e.Points
			}
		}
		if e.UserID == nil {
			snap.PointsRedeemedByVendor += e.Points
		}
	}
	return snap, nil
}

func (s *memState) InsertClaim(ctx context.Context, c *model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertClaim"); err != nil {
		return err
	}
	if c.Points <= 0 {
		return model.StoreError("insert claim", errors.New("check constraint violation"))
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = s.tick()
	s.claims[c.ID] = *c
	return nil
}

func (s *memState) GetClaimForUpdate(ctx context.Context, id uuid.UUID) (*model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetClaimForUpdate"); err != nil {
		return nil, err
	}
	c, ok := s.claims[id]
	if !ok {
		return nil, repository.ErrClaimNotFound
	}
	return &c, nil
}

func (s *memState) UpdateClaim(ctx context.Context, c *model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateClaim"); err != nil {
		return err
	}
	if _, ok := s.claims[c.ID]; !ok {
		return repository.ErrClaimNotFound
	}
	s.claims[c.ID] = *c
	return nil
}

func (s *memState) PendingClaimPoints(ctx context.Context, vendorID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("PendingClaimPoints"); err != nil {
		return 0, err
	}
	var pending int64
	for _, c := range s.claims {
		if c.VendorID == vendorID && c.Status == model.ClaimPending {
			pending += c.Points
		}
	}
	return pending, nil
}

func (s *memState) ListClaims(ctx context.Context, f model.ClaimFilter) ([]model.ClaimView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListClaims"); err != nil {
		return nil, err
	}
	var out []model.ClaimView
	for _, c := range s.claims {
		v := s.vendors[c.VendorID]
		if f.VendorID != nil && c.VendorID != *f.VendorID {
			continue
		}
		if f.VendorName != "" && v.Name != f.VendorName {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, model.ClaimView{Claim: c, VendorName: v.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memState) InsertSnapshot(ctx context.Context, snap *model.DailyReportSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertSnapshot"); err != nil {
		return err
	}
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	snap.CreatedAt = s.tick()
	s.snapshots = append(s.snapshots, *snap)
	return nil
}

func (s *memState) ListSnapshots(ctx context.Context) ([]model.DailyReportSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListSnapshots"); err != nil {
		return nil, err
	}
	out := append([]model.DailyReportSnapshot(nil), s.snapshots...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memState) MarkAccrualRun(ctx context.Context, day time.Time, granted int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("MarkAccrualRun"); err != nil {
		return false, err
	}
	key := runKey(day)
	if _, ok := s.runs[key]; ok {
		return false, nil
	}
	s.runs[key] = granted
	return true, nil
}

func runKey(day time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", day.Year(), day.Month(), day.Day())
}
