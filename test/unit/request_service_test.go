package unit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hemanthsairamjagatha/spark-lend/internal/domain/fault"
	loandomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loan"
	requestdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loanrequest"
	profiledomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/profile"
	walletdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/wallet"
	"github.com/hemanthsairamjagatha/spark-lend/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

type noopTx struct{}

func (noopTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.NewRegistry())
}

type requestRepoMock struct {
	requests map[string]*requestdomain.Entity
	splits   []requestdomain.Split
	expired  []string
	nextID   int
}

func newRequestRepoMock() *requestRepoMock {
	return &requestRepoMock{requests: map[string]*requestdomain.Entity{}}
}

func (m *requestRepoMock) Create(_ context.Context, in requestdomain.CreateInput) (*requestdomain.Entity, error) {
	m.nextID++
	e := &requestdomain.Entity{
		ID:                 fmt.Sprintf("req-%d", m.nextID),
		BorrowerID:         in.BorrowerID,
		AmountMinor:        in.AmountMinor,
		InterestRateBPS:    in.InterestRateBPS,
		TermDays:           in.TermDays,
		Status:             requestdomain.StatusPending,
		Purpose:            in.Purpose,
		ExpiresAt:          in.ExpiresAt,
		VisibilityRadiusKM: in.VisibilityRadiusKM,
	}
	m.requests[e.ID] = e
	return e, nil
}

func (m *requestRepoMock) GetByID(_ context.Context, id string) (*requestdomain.Entity, error) {
	if e, ok := m.requests[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, fault.New(fault.NotFound, "loan request not found")
}

func (m *requestRepoMock) GetByIDForUpdate(ctx context.Context, id string) (*requestdomain.Entity, error) {
	return m.GetByID(ctx, id)
}

func (m *requestRepoMock) List(_ context.Context, _ requestdomain.ListFilter) ([]requestdomain.Entity, error) {
	out := make([]requestdomain.Entity, 0, len(m.requests))
	for _, e := range m.requests {
		out = append(out, *e)
	}
	return out, nil
}

func (m *requestRepoMock) UpdateFunding(_ context.Context, id string, fundedMinor int64, status string) error {
	e, ok := m.requests[id]
	if !ok {
		return fault.New(fault.NotFound, "loan request not found")
	}
	if fundedMinor < e.AmountFundedMinor || fundedMinor > e.AmountMinor {
		return fault.New(fault.StateConflict, "funding update rejected")
	}
	e.AmountFundedMinor = fundedMinor
	e.Status = status
	return nil
}

func (m *requestRepoMock) SetStatus(_ context.Context, id, from, to string) error {
	e, ok := m.requests[id]
	if !ok {
		return fault.New(fault.NotFound, "loan request not found")
	}
	if e.Status != from {
		return fault.New(fault.StateConflict, "request is "+e.Status)
	}
	e.Status = to
	return nil
}

func (m *requestRepoMock) ListExpired(_ context.Context, _ time.Time, _ int32) ([]string, error) {
	return m.expired, nil
}

func (m *requestRepoMock) CreateSplit(_ context.Context, in requestdomain.CreateSplitInput) (*requestdomain.Split, error) {
	m.nextID++
	s := requestdomain.Split{
		ID:                     fmt.Sprintf("split-%d", m.nextID),
		LoanRequestID:          in.LoanRequestID,
		LenderID:               in.LenderID,
		AmountContributedMinor: in.AmountContributedMinor,
		InterestRateBPS:        in.InterestRateBPS,
		PlatformFeeMinor:       in.PlatformFeeMinor,
		Status:                 in.Status,
	}
	m.splits = append(m.splits, s)
	return &s, nil
}

func (m *requestRepoMock) ListSplitsByRequest(_ context.Context, requestID string) ([]requestdomain.Split, error) {
	out := []requestdomain.Split{}
	for _, s := range m.splits {
		if s.LoanRequestID == requestID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *requestRepoMock) SetSplitStatusByRequest(_ context.Context, requestID, status string) error {
	for i := range m.splits {
		if m.splits[i].LoanRequestID == requestID {
			m.splits[i].Status = status
		}
	}
	return nil
}

type profileRepoMock struct {
	profiles map[string]*profiledomain.Entity
	borrowed map[string]int64
	lent     map[string]int64
	repaidOK map[string]int
}

func newProfileRepoMock() *profileRepoMock {
	return &profileRepoMock{
		profiles: map[string]*profiledomain.Entity{},
		borrowed: map[string]int64{},
		lent:     map[string]int64{},
		repaidOK: map[string]int{},
	}
}

func (m *profileRepoMock) add(userID string, limitMinor int64) {
	m.profiles[userID] = &profiledomain.Entity{
		UserID:              userID,
		KYCStatus:           profiledomain.KYCVerified,
		CreditTier:          profiledomain.TierStarter,
		BorrowingLimitMinor: limitMinor,
	}
}

func (m *profileRepoMock) GetByUserID(_ context.Context, userID string) (*profiledomain.Entity, error) {
	if p, ok := m.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fault.New(fault.NotFound, "profile not found")
}

func (m *profileRepoMock) AddBorrowed(_ context.Context, userID string, deltaMinor int64) error {
	m.borrowed[userID] += deltaMinor
	return nil
}

func (m *profileRepoMock) AddLent(_ context.Context, userID string, deltaMinor int64) error {
	m.lent[userID] += deltaMinor
	return nil
}

func (m *profileRepoMock) IncrementSuccessfulRepayments(_ context.Context, userID string) error {
	m.repaidOK[userID]++
	return nil
}

// walletRepoMock applies the same delta rules as the real ledger so balances
// evolve realistically across a scenario.
type walletRepoMock struct {
	wallets map[string]*walletdomain.Entity
	entries []walletdomain.Entry
	txs     []walletdomain.Transaction
}

func newWalletRepoMock() *walletRepoMock {
	return &walletRepoMock{wallets: map[string]*walletdomain.Entity{}}
}

func (m *walletRepoMock) add(userID string, availableMinor int64) {
	m.wallets[userID] = &walletdomain.Entity{UserID: userID, AvailableMinor: availableMinor, Currency: "INR"}
}

func (m *walletRepoMock) GetByUserIDForUpdate(_ context.Context, userID string) (*walletdomain.Entity, error) {
	if w, ok := m.wallets[userID]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, fault.New(fault.NotFound, "wallet not found")
}

func (m *walletRepoMock) Post(_ context.Context, e walletdomain.Entry) (*walletdomain.Transaction, error) {
	w, ok := m.wallets[e.UserID]
	if !ok {
		return nil, fault.New(fault.NotFound, "wallet not found")
	}
	availDelta, escrowDelta, err := walletdomain.Deltas(e.Type, e.AmountMinor, e.Metadata)
	if err != nil {
		return nil, err
	}
	if w.AvailableMinor+availDelta < 0 || w.EscrowMinor+escrowDelta < 0 {
		return nil, fault.New(fault.InvalidAmount, "balance would go negative")
	}
	w.AvailableMinor += availDelta
	w.EscrowMinor += escrowDelta
	m.entries = append(m.entries, e)
	tx := walletdomain.Transaction{
		ID:          fmt.Sprintf("tx-%d", len(m.entries)),
		Seq:         int64(len(m.entries)),
		UserID:      e.UserID,
		Type:        e.Type,
		AmountMinor: e.AmountMinor,
		ReferenceID: e.ReferenceID,
		Description: e.Description,
		Metadata:    e.Metadata,
	}
	m.txs = append(m.txs, tx)
	return &tx, nil
}

func (m *walletRepoMock) Create(_ context.Context, userID, currency string) (*walletdomain.Entity, error) {
	w := &walletdomain.Entity{UserID: userID, Currency: currency}
	m.wallets[userID] = w
	return w, nil
}

func (m *walletRepoMock) GetByUserID(_ context.Context, userID string) (*walletdomain.Entity, error) {
	if w, ok := m.wallets[userID]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, fault.New(fault.NotFound, "wallet not found")
}

func (m *walletRepoMock) ListTransactions(_ context.Context, userID string, limit, offset int32) ([]walletdomain.Transaction, error) {
	all, _ := m.ListAllTransactions(context.Background(), userID)
	if int(offset) >= len(all) {
		return []walletdomain.Transaction{}, nil
	}
	all = all[offset:]
	if int(limit) < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *walletRepoMock) ListAllTransactions(_ context.Context, userID string) ([]walletdomain.Transaction, error) {
	out := []walletdomain.Transaction{}
	for _, tx := range m.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *walletRepoMock) ListUserIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.wallets))
	for id := range m.wallets {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *walletRepoMock) countByType(typ string) int {
	n := 0
	for _, e := range m.entries {
		if e.Type == typ {
			n++
		}
	}
	return n
}

type loanCreatorMock struct {
	created []loandomain.Entity
}

func (m *loanCreatorMock) Create(_ context.Context, in loandomain.CreateInput) (*loandomain.Entity, error) {
	e := loandomain.Entity{
		ID:              fmt.Sprintf("loan-%d", len(m.created)+1),
		LoanRequestID:   in.LoanRequestID,
		BorrowerID:      in.BorrowerID,
		PrincipalMinor:  in.PrincipalMinor,
		InterestMinor:   in.InterestMinor,
		TotalMinor:      in.PrincipalMinor + in.InterestMinor,
		InterestRateBPS: in.InterestRateBPS,
		TermDays:        in.TermDays,
		DueDate:         in.DueDate,
		Status:          loandomain.StatusActive,
	}
	m.created = append(m.created, e)
	return &e, nil
}

type requestFixture struct {
	svc      *requestdomain.Service
	repo     *requestRepoMock
	profiles *profileRepoMock
	wallets  *walletRepoMock
	loans    *loanCreatorMock
}

func newRequestFixture() *requestFixture {
	f := &requestFixture{
		repo:     newRequestRepoMock(),
		profiles: newProfileRepoMock(),
		wallets:  newWalletRepoMock(),
		loans:    &loanCreatorMock{},
	}
	f.svc = requestdomain.NewService(
		f.repo, f.profiles, f.wallets, f.loans, noopTx{},
		testLogger(), testMetrics(), 100, 7*24*time.Hour,
	)
	return f
}

func (f *requestFixture) seedRequest(t *testing.T, borrowerID string, amountMinor int64) *requestdomain.Entity {
	t.Helper()
	f.profiles.add(borrowerID, amountMinor)
	f.wallets.add(borrowerID, 0)
	req, err := f.svc.Create(context.Background(), borrowerID, requestdomain.CreateRequestInput{
		AmountMinor:     amountMinor,
		InterestRateBPS: 1200,
		TermDays:        30,
		Purpose:         "working capital",
	})
	if err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return req
}

func TestAcceptSplitExactFillActivatesLoan(t *testing.T) {
	f := newRequestFixture()
	req := f.seedRequest(t, "borrower", 1000000)

	f.profiles.add("lender-1", 0)
	f.profiles.add("lender-2", 0)
	f.wallets.add("lender-1", 800000)
	f.wallets.add("lender-2", 500000)

	ctx := context.Background()
	if _, err := f.svc.AcceptSplit(ctx, req.ID, "lender-1", 600000); err != nil {
		t.Fatalf("first split: %v", err)
	}

	mid, _ := f.repo.GetByID(ctx, req.ID)
	if mid.Status != requestdomain.StatusPartial || mid.AmountFundedMinor != 600000 {
		t.Fatalf("unexpected state after first split: %+v", mid)
	}

	if _, err := f.svc.AcceptSplit(ctx, req.ID, "lender-2", 400000); err != nil {
		t.Fatalf("filling split: %v", err)
	}

	final, _ := f.repo.GetByID(ctx, req.ID)
	if final.Status != requestdomain.StatusActive {
		t.Fatalf("exact fill must activate the request, got %s", final.Status)
	}

	if len(f.loans.created) != 1 {
		t.Fatalf("expected one loan, got %d", len(f.loans.created))
	}
	ln := f.loans.created[0]
	if ln.PrincipalMinor != 1000000 || ln.InterestMinor != 120000 || ln.TotalMinor != 1120000 {
		t.Fatalf("unexpected loan terms: %+v", ln)
	}

	// Escrowed funds moved through to the borrower.
	borrower := f.wallets.wallets["borrower"]
	if borrower.AvailableMinor != 1000000 {
		t.Fatalf("borrower should hold the principal, got %d", borrower.AvailableMinor)
	}
	l1 := f.wallets.wallets["lender-1"]
	if l1.AvailableMinor != 800000-600000-6000 || l1.EscrowMinor != 0 {
		t.Fatalf("unexpected lender-1 wallet: %+v", l1)
	}
	l2 := f.wallets.wallets["lender-2"]
	if l2.AvailableMinor != 500000-400000-4000 || l2.EscrowMinor != 0 {
		t.Fatalf("unexpected lender-2 wallet: %+v", l2)
	}

	if f.profiles.borrowed["borrower"] != 1000000 {
		t.Fatalf("borrowed total not recorded: %d", f.profiles.borrowed["borrower"])
	}
	if f.profiles.lent["lender-1"] != 600000 || f.profiles.lent["lender-2"] != 400000 {
		t.Fatalf("lent totals not recorded: %+v", f.profiles.lent)
	}

	for _, s := range f.repo.splits {
		if s.Status != requestdomain.StatusActive {
			t.Fatalf("split %s should be active, is %s", s.ID, s.Status)
		}
	}
}

func TestAcceptSplitOvershootRejected(t *testing.T) {
	f := newRequestFixture()
	req := f.seedRequest(t, "borrower", 1000000)

	f.profiles.add("lender-1", 0)
	f.wallets.add("lender-1", 2000000)

	ctx := context.Background()
	if _, err := f.svc.AcceptSplit(ctx, req.ID, "lender-1", 600000); err != nil {
		t.Fatalf("first split: %v", err)
	}

	_, err := f.svc.AcceptSplit(ctx, req.ID, "lender-1", 500000)
	if !fault.Is(err, fault.InvalidAmount) {
		t.Fatalf("overshoot must be rejected, got %v", err)
	}

	after, _ := f.repo.GetByID(ctx, req.ID)
	if after.AmountFundedMinor != 600000 {
		t.Fatalf("rejected split must not change funding: %d", after.AmountFundedMinor)
	}
}

func TestAcceptSplitSelfFundingRejected(t *testing.T) {
	f := newRequestFixture()
	req := f.seedRequest(t, "borrower", 1000000)
	f.wallets.add("borrower", 2000000)

	_, err := f.svc.AcceptSplit(context.Background(), req.ID, "borrower", 100000)
	if !fault.Is(err, fault.StateConflict) {
		t.Fatalf("self-funding must be state_conflict, got %v", err)
	}
}

func TestAcceptSplitInsufficientBalance(t *testing.T) {
	f := newRequestFixture()
	req := f.seedRequest(t, "borrower", 1000000)

	f.profiles.add("lender-1", 0)
	f.wallets.add("lender-1", 599999)

	_, err := f.svc.AcceptSplit(context.Background(), req.ID, "lender-1", 600000)
	if !fault.Is(err, fault.EligibilityDenied) {
		t.Fatalf("expected eligibility_denied, got %v", err)
	}
}

func TestAcceptSplitRequiresFeeHeadroom(t *testing.T) {
	f := newRequestFixture()
	req := f.seedRequest(t, "borrower", 1000000)

	// Covers the contribution but not the 1% platform fee on top of it.
	f.profiles.add("lender-1", 0)
	f.wallets.add("lender-1", 600000)

	_, err := f.svc.AcceptSplit(context.Background(), req.ID, "lender-1", 600000)
	if !fault.Is(err, fault.EligibilityDenied) {
		t.Fatalf("expected eligibility_denied, got %v", err)
	}
	if f.wallets.countByType(walletdomain.TypeEscrowHold) != 0 {
		t.Fatalf("rejected split must not post a hold")
	}
}

func TestAcceptSplitFeeSettlesFromEscrowReserve(t *testing.T) {
	f := newRequestFixture()
	req := f.seedRequest(t, "borrower", 600000)

	// The lender's balance is exactly contribution plus fee, so the whole
	// wallet goes into escrow and the fee must settle out of the reserve.
	f.profiles.add("lender-1", 0)
	f.wallets.add("lender-1", 606000)

	ctx := context.Background()
	if _, err := f.svc.AcceptSplit(ctx, req.ID, "lender-1", 600000); err != nil {
		t.Fatalf("split: %v", err)
	}

	after, _ := f.repo.GetByID(ctx, req.ID)
	if after.Status != requestdomain.StatusActive {
		t.Fatalf("full fill must activate the request, got %s", after.Status)
	}
	l1 := f.wallets.wallets["lender-1"]
	if l1.AvailableMinor != 0 || l1.EscrowMinor != 0 {
		t.Fatalf("fee must come out of the reserve, wallet: %+v", l1)
	}
	borrower := f.wallets.wallets["borrower"]
	if borrower.AvailableMinor != 600000 {
		t.Fatalf("borrower should hold the principal, got %d", borrower.AvailableMinor)
	}
	for _, e := range f.wallets.entries {
		if e.Type == walletdomain.TypeEscrowHold && e.AmountMinor != 606000 {
			t.Fatalf("hold must cover contribution plus fee, got %d", e.AmountMinor)
		}
	}
}

func TestAcceptSplitOnExpiredRequestCancelsIt(t *testing.T) {
	f := newRequestFixture()
	req := f.seedRequest(t, "borrower", 1000000)
	f.repo.requests[req.ID].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	f.profiles.add("lender-1", 0)
	f.wallets.add("lender-1", 2000000)

	_, err := f.svc.AcceptSplit(context.Background(), req.ID, "lender-1", 600000)
	if !fault.Is(err, fault.StateConflict) {
		t.Fatalf("expected state_conflict, got %v", err)
	}
	after, _ := f.repo.GetByID(context.Background(), req.ID)
	if after.Status != requestdomain.StatusCancelled {
		t.Fatalf("expired request must be cancelled in place, got %s", after.Status)
	}
}

// rollbackTx behaves like the real transactor: when the closure errors, the
// request and wallet mocks are restored to their state at begin, so nothing
// from the failed attempt remains visible.
type rollbackTx struct {
	repo    *requestRepoMock
	wallets *walletRepoMock
}

func (r rollbackTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	reqSnap := map[string]*requestdomain.Entity{}
	for id, e := range r.repo.requests {
		cp := *e
		reqSnap[id] = &cp
	}
	splitSnap := append([]requestdomain.Split(nil), r.repo.splits...)
	walletSnap := map[string]*walletdomain.Entity{}
	for id, w := range r.wallets.wallets {
		cp := *w
		walletSnap[id] = &cp
	}
	entrySnap := append([]walletdomain.Entry(nil), r.wallets.entries...)
	txSnap := append([]walletdomain.Transaction(nil), r.wallets.txs...)

	if err := fn(ctx); err != nil {
		r.repo.requests = reqSnap
		r.repo.splits = splitSnap
		r.wallets.wallets = walletSnap
		r.wallets.entries = entrySnap
		r.wallets.txs = txSnap
		return err
	}
	return nil
}

func TestExpiredRequestCancellationSurvivesSplitRollback(t *testing.T) {
	f := newRequestFixture()
	f.svc = requestdomain.NewService(
		f.repo, f.profiles, f.wallets, f.loans,
		rollbackTx{repo: f.repo, wallets: f.wallets},
		testLogger(), testMetrics(), 100, 7*24*time.Hour,
	)
	req := f.seedRequest(t, "borrower", 1000000)

	f.profiles.add("lender-1", 0)
	f.wallets.add("lender-1", 101000)

	ctx := context.Background()
	if _, err := f.svc.AcceptSplit(ctx, req.ID, "lender-1", 100000); err != nil {
		t.Fatalf("first split: %v", err)
	}

	f.repo.requests[req.ID].ExpiresAt = time.Now().UTC().Add(-time.Minute)
	f.profiles.add("lender-2", 0)
	f.wallets.add("lender-2", 1000000)

	_, err := f.svc.AcceptSplit(ctx, req.ID, "lender-2", 200000)
	if !fault.Is(err, fault.StateConflict) {
		t.Fatalf("expected state_conflict, got %v", err)
	}

	// The split attempt rolled back, but the cancellation committed on its
	// own and must still be visible.
	after, _ := f.repo.GetByID(ctx, req.ID)
	if after.Status != requestdomain.StatusCancelled {
		t.Fatalf("cancellation must outlive the rejected split, got %s", after.Status)
	}
	l1 := f.wallets.wallets["lender-1"]
	if l1.AvailableMinor != 101000 || l1.EscrowMinor != 0 {
		t.Fatalf("escrow must be released to the first lender: %+v", l1)
	}
	l2 := f.wallets.wallets["lender-2"]
	if l2.AvailableMinor != 1000000 || l2.EscrowMinor != 0 {
		t.Fatalf("late lender's wallet must be untouched: %+v", l2)
	}
	if len(f.repo.splits) != 1 || f.repo.splits[0].Status != requestdomain.StatusCancelled {
		t.Fatalf("only the first split should exist, cancelled: %+v", f.repo.splits)
	}
}

func TestCancelReleasesEscrowToLenders(t *testing.T) {
	f := newRequestFixture()
	req := f.seedRequest(t, "borrower", 1000000)

	f.profiles.add("lender-1", 0)
	f.wallets.add("lender-1", 606000)

	ctx := context.Background()
	if _, err := f.svc.AcceptSplit(ctx, req.ID, "lender-1", 600000); err != nil {
		t.Fatalf("split: %v", err)
	}
	l1 := f.wallets.wallets["lender-1"]
	if l1.AvailableMinor != 0 || l1.EscrowMinor != 606000 {
		t.Fatalf("escrow hold not applied: %+v", l1)
	}

	if err := f.svc.Cancel(ctx, req.ID, "borrower"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if l1.AvailableMinor != 606000 || l1.EscrowMinor != 0 {
		t.Fatalf("escrow must return to available on cancel: %+v", l1)
	}
	after, _ := f.repo.GetByID(ctx, req.ID)
	if after.Status != requestdomain.StatusCancelled {
		t.Fatalf("request should be cancelled, got %s", after.Status)
	}
	if f.repo.splits[0].Status != requestdomain.StatusCancelled {
		t.Fatalf("split should be cancelled, got %s", f.repo.splits[0].Status)
	}
}

func TestCancelByNonOwnerForbidden(t *testing.T) {
	f := newRequestFixture()
	req := f.seedRequest(t, "borrower", 1000000)

	err := f.svc.Cancel(context.Background(), req.ID, "someone-else")
	if !fault.Is(err, fault.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestSweepExpiredCancelsStaleRequests(t *testing.T) {
	f := newRequestFixture()
	req := f.seedRequest(t, "borrower", 1000000)

	f.profiles.add("lender-1", 0)
	f.wallets.add("lender-1", 606000)
	if _, err := f.svc.AcceptSplit(context.Background(), req.ID, "lender-1", 600000); err != nil {
		t.Fatalf("split: %v", err)
	}

	f.repo.requests[req.ID].ExpiresAt = time.Now().UTC().Add(-time.Hour)
	f.repo.expired = []string{req.ID}

	n, err := f.svc.SweepExpired(context.Background(), 10)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one cancellation, got %d", n)
	}
	l1 := f.wallets.wallets["lender-1"]
	if l1.AvailableMinor != 606000 || l1.EscrowMinor != 0 {
		t.Fatalf("sweep must release escrow: %+v", l1)
	}
	if f.wallets.countByType(walletdomain.TypeEscrowRelease) != 1 {
		t.Fatalf("expected one escrow release")
	}
}

func TestCreateRequestOverLimitDenied(t *testing.T) {
	f := newRequestFixture()
	f.profiles.add("borrower", 500000)

	_, err := f.svc.Create(context.Background(), "borrower", requestdomain.CreateRequestInput{
		AmountMinor: 600000,
		TermDays:    30,
	})
	if !fault.Is(err, fault.EligibilityDenied) {
		t.Fatalf("expected eligibility_denied, got %v", err)
	}
}
