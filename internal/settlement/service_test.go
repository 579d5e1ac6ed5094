package settlement

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/courtline/courtline/internal/shared"
	"github.com/courtline/courtline/internal/users"
)

type trainingRow struct {
	ID            int64
	TrainerID     int64
	Cents         shared.Cents
	Status        string
	Date          shared.Day
	PaymentID     *int64
	CompensatedAt *time.Time
}

type paymentRow struct {
	ID        int64
	CreatedBy int64
	CreatedAt time.Time
}

type memorySettlementRepo struct {
	trainings     map[int64]trainingRow
	payments      map[int64]paymentRow
	trainerNames  map[int64]string
	trainerIBANs  map[int64]string
	adminNames    map[int64]string
	nextPaymentID int64
}

func newMemorySettlementRepo() *memorySettlementRepo {
	return &memorySettlementRepo{
		trainings:    make(map[int64]trainingRow),
		payments:     make(map[int64]paymentRow),
		trainerNames: make(map[int64]string),
		trainerIBANs: make(map[int64]string),
		adminNames:   make(map[int64]string),
	}
}

type memorySettlementTx struct {
	repo *memorySettlementRepo
}

// WithTx emulates transactional rollback by snapshotting state and restoring
// it when fn fails.
func (r *memorySettlementRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	trainingsBackup := make(map[int64]trainingRow, len(r.trainings))
	for k, v := range r.trainings {
		trainingsBackup[k] = v
	}
	paymentsBackup := make(map[int64]paymentRow, len(r.payments))
	for k, v := range r.payments {
		paymentsBackup[k] = v
	}
	nextBackup := r.nextPaymentID

	if err := fn(ctx, &memorySettlementTx{repo: r}); err != nil {
		r.trainings = trainingsBackup
		r.payments = paymentsBackup
		r.nextPaymentID = nextBackup
		return err
	}
	return nil
}

func (r *memorySettlementRepo) GetPayment(ctx context.Context, id int64) (Payment, error) {
	row, ok := r.payments[id]
	if !ok {
		return Payment{}, ErrPaymentNotFound
	}
	p := Payment{
		ID:            row.ID,
		CreatedAt:     row.CreatedAt,
		CreatedBy:     row.CreatedBy,
		CreatedByName: r.adminNames[row.CreatedBy],
	}
	for _, t := range r.trainings {
		if t.PaymentID != nil && *t.PaymentID == id {
			p.TrainingIDs = append(p.TrainingIDs, t.ID)
			p.TotalCents += t.Cents
		}
	}
	sort.Slice(p.TrainingIDs, func(i, j int) bool { return p.TrainingIDs[i] < p.TrainingIDs[j] })
	return p, nil
}

func (r *memorySettlementRepo) ListPayments(ctx context.Context) ([]Payment, error) {
	var out []Payment
	for id := range r.payments {
		p, err := r.GetPayment(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memorySettlementRepo) DeletePayment(ctx context.Context, id int64) error {
	if _, ok := r.payments[id]; !ok {
		return ErrPaymentNotFound
	}
	delete(r.payments, id)
	return nil
}

func (r *memorySettlementRepo) OpenCompensations(ctx context.Context) ([]OpenCompensation, error) {
	byTrainer := make(map[int64]*OpenCompensation)
	for _, t := range r.trainings {
		if t.Status != "APPROVED" || t.PaymentID != nil {
			continue
		}
		c, ok := byTrainer[t.TrainerID]
		if !ok {
			c = &OpenCompensation{
				TrainerID:   t.TrainerID,
				TrainerName: r.trainerNames[t.TrainerID],
				TrainerIBAN: r.trainerIBANs[t.TrainerID],
			}
			byTrainer[t.TrainerID] = c
		}
		c.TrainingIDs = append(c.TrainingIDs, t.ID)
		c.TotalCents += t.Cents
	}
	var out []OpenCompensation
	for _, c := range byTrainer {
		sort.Slice(c.TrainingIDs, func(i, j int) bool { return c.TrainingIDs[i] < c.TrainingIDs[j] })
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrainerID < out[j].TrainerID })
	return out, nil
}

func (tx *memorySettlementTx) CreatePayment(ctx context.Context, createdBy int64, createdAt time.Time) (int64, error) {
	tx.repo.nextPaymentID++
	id := tx.repo.nextPaymentID
	tx.repo.payments[id] = paymentRow{ID: id, CreatedBy: createdBy, CreatedAt: createdAt}
	return id, nil
}

func (tx *memorySettlementTx) LockTrainings(ctx context.Context, ids []int64) error {
	return nil
}

func (tx *memorySettlementTx) MarkCompensated(ctx context.Context, ids []int64, paymentID int64, at time.Time) (int64, error) {
	var affected int64
	for _, id := range ids {
		t, ok := tx.repo.trainings[id]
		if !ok {
			continue
		}
		t.Status = "COMPENSATED"
		t.PaymentID = &paymentID
		stamp := at
		t.CompensatedAt = &stamp
		tx.repo.trainings[id] = t
		affected++
	}
	return affected, nil
}

func (tx *memorySettlementTx) SumLinkedCompensation(ctx context.Context, paymentID int64) (shared.Cents, error) {
	var total shared.Cents
	for _, t := range tx.repo.trainings {
		if t.PaymentID != nil && *t.PaymentID == paymentID {
			total += t.Cents
		}
	}
	return total, nil
}

func (tx *memorySettlementTx) LinkedTrainingIDs(ctx context.Context, paymentID int64) ([]int64, error) {
	var ids []int64
	for _, t := range tx.repo.trainings {
		if t.PaymentID != nil && *t.PaymentID == paymentID {
			ids = append(ids, t.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type stubUserRepo struct {
	users map[int64]users.User
}

func (s *stubUserRepo) Get(ctx context.Context, id int64) (users.User, error) {
	u, ok := s.users[id]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserRepo) ListTrainers(ctx context.Context) ([]users.User, error) {
	return nil, nil
}

type bumpSpy struct {
	count int
}

func (b *bumpSpy) Bump(ctx context.Context) error {
	b.count++
	return nil
}

var settleNow = time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC)

func newSettleService(repo *memorySettlementRepo, cache CacheInvalidator) *Service {
	userRepo := &stubUserRepo{users: map[int64]users.User{
		50: {ID: 50, Name: "Casey Admin", Role: shared.RoleAdmin},
	}}
	repo.adminNames[50] = "Casey Admin"
	svc := NewService(repo, userRepo, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return settleNow }
	return svc
}

func seedRow(repo *memorySettlementRepo, id, trainerID int64, cents shared.Cents, status, date string) {
	d, _ := shared.ParseDay(date)
	repo.trainings[id] = trainingRow{ID: id, TrainerID: trainerID, Cents: cents, Status: status, Date: d}
}

func TestSettleComputesTotalFromStorage(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySettlementRepo()
	svc := newSettleService(repo, nil)
	seedRow(repo, 1, 10, 1000, "APPROVED", "2024-01-15")
	seedRow(repo, 2, 10, 2000, "APPROVED", "2024-02-20")

	payment, err := svc.Settle(ctx, []int64{1, 2}, 50)
	require.NoError(t, err)
	require.Equal(t, shared.Cents(3000), payment.TotalCents)
	require.Equal(t, []int64{1, 2}, payment.TrainingIDs)
	require.Equal(t, "Casey Admin", payment.CreatedByName)
	require.Equal(t, settleNow, payment.CreatedAt)

	for _, id := range []int64{1, 2} {
		row := repo.trainings[id]
		require.Equal(t, "COMPENSATED", row.Status)
		require.NotNil(t, row.CompensatedAt)
		require.NotNil(t, row.PaymentID)
		require.Equal(t, payment.ID, *row.PaymentID)
	}
}

func TestSettleMissingIDRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySettlementRepo()
	svc := newSettleService(repo, nil)
	seedRow(repo, 1, 10, 1000, "APPROVED", "2024-01-15")

	_, err := svc.Settle(ctx, []int64{1, 404}, 50)
	require.ErrorIs(t, err, ErrTrainingMissing)

	row := repo.trainings[1]
	require.Equal(t, "APPROVED", row.Status)
	require.Nil(t, row.PaymentID)
	require.Nil(t, row.CompensatedAt)
	require.Empty(t, repo.payments)
}

func TestSettleEmptySetYieldsZeroTotal(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySettlementRepo()
	svc := newSettleService(repo, nil)

	payment, err := svc.Settle(ctx, nil, 50)
	require.NoError(t, err)
	require.Equal(t, shared.Cents(0), payment.TotalCents)
	require.Empty(t, payment.TrainingIDs)
	require.Len(t, repo.payments, 1)
}

func TestSettleUnknownAdmin(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySettlementRepo()
	svc := newSettleService(repo, nil)

	_, err := svc.Settle(ctx, nil, 123)
	require.ErrorIs(t, err, ErrUnknownAdmin)
	require.Empty(t, repo.payments)
}

func TestSettleForceSettlesNewTraining(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySettlementRepo()
	svc := newSettleService(repo, nil)
	seedRow(repo, 1, 10, 500, "NEW", "2024-01-15")

	payment, err := svc.Settle(ctx, []int64{1}, 50)
	require.NoError(t, err)
	require.Equal(t, shared.Cents(500), payment.TotalCents)
	require.Equal(t, "COMPENSATED", repo.trainings[1].Status)
}

func TestResettleReassignsPayment(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySettlementRepo()
	svc := newSettleService(repo, nil)
	seedRow(repo, 1, 10, 1000, "APPROVED", "2024-01-15")
	seedRow(repo, 2, 10, 2000, "APPROVED", "2024-02-20")

	first, err := svc.Settle(ctx, []int64{1, 2}, 50)
	require.NoError(t, err)
	require.Equal(t, shared.Cents(3000), first.TotalCents)

	second, err := svc.Settle(ctx, []int64{2}, 50)
	require.NoError(t, err)
	require.Equal(t, shared.Cents(2000), second.TotalCents)

	// The older payment silently loses the reassigned training on next read.
	reread, err := svc.GetPayment(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, shared.Cents(1000), reread.TotalCents)
	require.Equal(t, []int64{1}, reread.TrainingIDs)
	require.Equal(t, second.ID, *repo.trainings[2].PaymentID)
}

func TestSettleDeduplicatesIDs(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySettlementRepo()
	svc := newSettleService(repo, nil)
	seedRow(repo, 1, 10, 1000, "APPROVED", "2024-01-15")

	payment, err := svc.Settle(ctx, []int64{1, 1, 1}, 50)
	require.NoError(t, err)
	require.Equal(t, shared.Cents(1000), payment.TotalCents)
	require.Equal(t, []int64{1}, payment.TrainingIDs)
}

func TestSettleBumpsReportCache(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySettlementRepo()
	spy := &bumpSpy{}
	svc := newSettleService(repo, spy)
	seedRow(repo, 1, 10, 1000, "APPROVED", "2024-01-15")

	_, err := svc.Settle(ctx, []int64{1}, 50)
	require.NoError(t, err)
	require.Equal(t, 1, spy.count)

	_, err = svc.Settle(ctx, []int64{404}, 50)
	require.Error(t, err)
	require.Equal(t, 1, spy.count)
}

func TestOpenCompensations(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySettlementRepo()
	svc := newSettleService(repo, nil)
	repo.trainerNames[10] = "Alex Vogel"
	repo.trainerIBANs[10] = "DE89370400440532013000"
	repo.trainerNames[11] = "Birte Lang"
	seedRow(repo, 1, 10, 1000, "APPROVED", "2024-01-15")
	seedRow(repo, 2, 10, 2000, "APPROVED", "2024-02-20")
	seedRow(repo, 3, 11, 700, "APPROVED", "2024-02-21")
	seedRow(repo, 4, 11, 900, "NEW", "2024-02-22")
	paid := int64(9)
	repo.trainings[5] = trainingRow{ID: 5, TrainerID: 10, Cents: 400, Status: "COMPENSATED", PaymentID: &paid}

	open, err := svc.OpenCompensations(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, shared.Cents(3000), open[0].TotalCents)
	require.Equal(t, []int64{1, 2}, open[0].TrainingIDs)
	require.Equal(t, "DE89370400440532013000", open[0].TrainerIBAN)
	require.Equal(t, shared.Cents(700), open[1].TotalCents)
}
