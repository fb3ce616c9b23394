package integration

import (
	"context"
	"testing"
	"time"

	"github.com/hemanthsairamjagatha/spark-lend/internal/db"
	loandomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loan"
	requestdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/loanrequest"
	profiledomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/profile"
	ratingdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/rating"
	walletdomain "github.com/hemanthsairamjagatha/spark-lend/internal/domain/wallet"
	"github.com/hemanthsairamjagatha/spark-lend/internal/repository/postgres"
	"github.com/hemanthsairamjagatha/spark-lend/test/integration/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgresRepositoriesCoreDomainFlow(t *testing.T) {
	pool := testutil.NewTestPool(t)
	defer pool.Close()
	testutil.ApplyMigrations(t, pool)
	testutil.ResetTables(t, pool)

	ctx := context.Background()
	profileRepo := postgres.NewProfileRepository(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	requestRepo := postgres.NewRequestRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	ratingRepo := postgres.NewRatingRepository(pool)
	realtimeRepo := postgres.NewRealtimeRepository(pool)

	borrower := seedMember(t, ctx, pool, "borrower@example.com")
	lender := seedMember(t, ctx, pool, "lender@example.com")

	// Profiles carry the KYC and tier state.
	p, err := profileRepo.GetByUserID(ctx, borrower)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.KYCStatus != profiledomain.KYCVerified || p.BorrowingLimitMinor != 1000000 {
		t.Fatalf("unexpected profile: %+v", p)
	}

	// Ledger postings move wallet balances.
	if _, err := walletRepo.Post(ctx, walletdomain.Entry{
		UserID: lender, Type: walletdomain.TypeDeposit, AmountMinor: 800000,
		Description: "wallet top-up",
	}); err != nil {
		t.Fatalf("post deposit: %v", err)
	}
	w, err := walletRepo.GetByUserID(ctx, lender)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.AvailableMinor != 800000 || w.Currency != "INR" {
		t.Fatalf("unexpected wallet: %+v", w)
	}

	req, err := requestRepo.Create(ctx, requestdomain.CreateInput{
		BorrowerID:      borrower,
		AmountMinor:     600000,
		InterestRateBPS: 1200,
		TermDays:        30,
		Purpose:         "inventory purchase",
		ExpiresAt:       time.Now().UTC().Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	open, err := requestRepo.List(ctx, requestdomain.ListFilter{OpenOnly: true, Limit: 10})
	if err != nil {
		t.Fatalf("list open requests: %v", err)
	}
	if len(open) != 1 || open[0].ID != req.ID {
		t.Fatalf("open request listing mismatch: %+v", open)
	}

	split, err := requestRepo.CreateSplit(ctx, requestdomain.CreateSplitInput{
		LoanRequestID:          req.ID,
		LenderID:               lender,
		AmountContributedMinor: 600000,
		InterestRateBPS:        1200,
		PlatformFeeMinor:       6000,
		Status:                 requestdomain.StatusFulfilled,
	})
	if err != nil {
		t.Fatalf("create split: %v", err)
	}
	if err := requestRepo.UpdateFunding(ctx, req.ID, 600000, requestdomain.StatusFulfilled); err != nil {
		t.Fatalf("update funding: %v", err)
	}

	splits, err := requestRepo.ListSplitsByRequest(ctx, req.ID)
	if err != nil {
		t.Fatalf("list splits: %v", err)
	}
	if len(splits) != 1 || splits[0].ID != split.ID {
		t.Fatalf("split listing mismatch: %+v", splits)
	}

	ln, err := loanRepo.Create(ctx, loandomain.CreateInput{
		LoanRequestID:   req.ID,
		BorrowerID:      borrower,
		PrincipalMinor:  600000,
		InterestMinor:   72000,
		InterestRateBPS: 1200,
		TermDays:        30,
		DueDate:         time.Now().UTC().Add(30 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if ln.TotalMinor != 672000 {
		t.Fatalf("loan total not derived: %+v", ln)
	}

	shares, err := loanRepo.ListFundingShares(ctx, ln.ID)
	if err != nil {
		t.Fatalf("list funding shares: %v", err)
	}
	if len(shares) != 1 || shares[0].LenderID != lender || shares[0].ContributedMinor != 600000 {
		t.Fatalf("funding shares mismatch: %+v", shares)
	}

	rep, err := loanRepo.AddRepayment(ctx, loandomain.Repayment{
		LoanID:                ln.ID,
		AmountMinor:           672000,
		PrincipalPortionMinor: 600000,
		InterestPortionMinor:  72000,
		PaymentMethod:         "upi",
		TransactionReference:  "ref-672000",
	})
	if err != nil {
		t.Fatalf("add repayment: %v", err)
	}
	if err := loanRepo.ApplyRepayment(ctx, ln.ID, 672000, loandomain.StatusCompleted); err != nil {
		t.Fatalf("apply repayment: %v", err)
	}
	totals, err := loanRepo.GetPortionTotals(ctx, ln.ID)
	if err != nil {
		t.Fatalf("portion totals: %v", err)
	}
	if totals.PrincipalMinor != 600000 || totals.InterestMinor != 72000 {
		t.Fatalf("portion totals mismatch: %+v", totals)
	}
	reps, err := loanRepo.ListRepayments(ctx, ln.ID)
	if err != nil {
		t.Fatalf("list repayments: %v", err)
	}
	if len(reps) != 1 || reps[0].ID != rep.ID {
		t.Fatalf("repayment listing mismatch: %+v", reps)
	}

	if _, err := ratingRepo.Create(ctx, ratingdomain.CreateInput{
		LoanID:     ln.ID,
		FromUserID: lender,
		ToUserID:   borrower,
		Rating:     5,
		Comment:    "repaid on time",
	}); err != nil {
		t.Fatalf("create rating: %v", err)
	}
	summary, err := ratingRepo.GetUserSummary(ctx, borrower)
	if err != nil {
		t.Fatalf("rating summary: %v", err)
	}
	if summary.Count != 1 || summary.Average != 5 {
		t.Fatalf("rating summary mismatch: %+v", summary)
	}

	events, err := realtimeRepo.ListLedgerEventsSince(ctx, 0, 100)
	if err != nil {
		t.Fatalf("list ledger events: %v", err)
	}
	if len(events) != 1 || events[0].Type != walletdomain.TypeDeposit {
		t.Fatalf("ledger event feed mismatch: %+v", events)
	}
	head, err := realtimeRepo.LatestLedgerSeq(ctx)
	if err != nil {
		t.Fatalf("latest ledger seq: %v", err)
	}
	if head != events[0].Seq {
		t.Fatalf("ledger head %d does not match last event seq %d", head, events[0].Seq)
	}
}

// seedMember creates a user with a verified profile and an empty wallet, the
// state a member reaches after signup plus admin KYC approval.
func seedMember(t *testing.T, ctx context.Context, pool *pgxpool.Pool, email string) string {
	t.Helper()

	authRepo := db.NewAuthRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	walletRepo := postgres.NewWalletRepository(pool)

	u, err := authRepo.CreateUser(ctx, email, "x", "member")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	if _, err := profileRepo.Create(ctx, u.ID, email); err != nil {
		t.Fatalf("create profile %s: %v", email, err)
	}
	if err := profileRepo.SetKYCStatus(ctx, u.ID, profiledomain.KYCVerified, profiledomain.TierStarter, 1000000); err != nil {
		t.Fatalf("verify kyc %s: %v", email, err)
	}
	if _, err := walletRepo.Create(ctx, u.ID, "INR"); err != nil {
		t.Fatalf("create wallet %s: %v", email, err)
	}
	return u.ID
}
