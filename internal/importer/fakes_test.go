package importer

// In-memory repository fakes backing the importer tests. They mirror the
// store's observable behavior: Find methods return (nil, nil) when nothing
// matches, ListByContract orders by (paid_at, created_at, code), and
// BulkCreate verifies the persisted count.

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/huangfeng15/taizhang/internal/model"
)

// fakeTx satisfies TxManager without a database. It counts invocations so
// tests can assert transaction boundaries.
type fakeTx struct {
	calls int
}

func (tx *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	return fn(ctx)
}

type fakeProjects struct {
	byCode  map[string]*model.Project
	nextID  int64
	findErr error
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{byCode: make(map[string]*model.Project)}
}

func (f *fakeProjects) FindByCode(_ context.Context, code string) (*model.Project, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.byCode[code]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) Create(_ context.Context, p *model.Project) error {
	if _, exists := f.byCode[p.Code]; exists {
		return fmt.Errorf("duplicate project code %s", p.Code)
	}
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.byCode[p.Code] = &cp
	return nil
}

func (f *fakeProjects) Update(_ context.Context, p *model.Project) error {
	if _, exists := f.byCode[p.Code]; !exists {
		return fmt.Errorf("no such project %s", p.Code)
	}
	cp := *p
	f.byCode[p.Code] = &cp
	return nil
}

type fakeProcurements struct {
	byCode map[string]*model.Procurement
	nextID int64
}

func newFakeProcurements() *fakeProcurements {
	return &fakeProcurements{byCode: make(map[string]*model.Procurement)}
}

func (f *fakeProcurements) FindByCode(_ context.Context, code string) (*model.Procurement, error) {
	p, ok := f.byCode[code]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProcurements) Create(_ context.Context, p *model.Procurement) error {
	if _, exists := f.byCode[p.Code]; exists {
		return fmt.Errorf("duplicate procurement code %s", p.Code)
	}
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.byCode[p.Code] = &cp
	return nil
}

func (f *fakeProcurements) Update(_ context.Context, p *model.Procurement) error {
	if _, exists := f.byCode[p.Code]; !exists {
		return fmt.Errorf("no such procurement %s", p.Code)
	}
	cp := *p
	f.byCode[p.Code] = &cp
	return nil
}

func (f *fakeProcurements) DeleteByProject(_ context.Context, projectCode string) (int64, error) {
	var n int64
	for code, p := range f.byCode {
		if p.ProjectCode == projectCode {
			delete(f.byCode, code)
			n++
		}
	}
	return n, nil
}

type fakeContracts struct {
	byCode map[string]*model.Contract
	nextID int64
}

func newFakeContracts() *fakeContracts {
	return &fakeContracts{byCode: make(map[string]*model.Contract)}
}

func (f *fakeContracts) FindByCode(_ context.Context, code string) (*model.Contract, error) {
	c, ok := f.byCode[code]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContracts) FindBySequence(_ context.Context, seq string) (*model.Contract, error) {
	if seq == "" {
		return nil, nil
	}
	for _, c := range f.byCode {
		if c.SequenceNumber == seq {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeContracts) Create(_ context.Context, c *model.Contract) error {
	if _, exists := f.byCode[c.Code]; exists {
		return fmt.Errorf("duplicate contract code %s", c.Code)
	}
	f.nextID++
	c.ID = f.nextID
	cp := *c
	f.byCode[c.Code] = &cp
	return nil
}

func (f *fakeContracts) Update(_ context.Context, c *model.Contract) error {
	if _, exists := f.byCode[c.Code]; !exists {
		return fmt.Errorf("no such contract %s", c.Code)
	}
	cp := *c
	f.byCode[c.Code] = &cp
	return nil
}

func (f *fakeContracts) DeleteByProject(_ context.Context, projectCode string) (int64, error) {
	var n int64
	for code, c := range f.byCode {
		if c.ProjectCode == projectCode {
			delete(f.byCode, code)
			n++
		}
	}
	return n, nil
}

type fakePayments struct {
	byCode    map[string]*model.Payment
	contracts *fakeContracts // for DeleteByProject scope
	nextID    int64
	clock     time.Time

	bulkErr error // injected BulkCreate failure
}

func newFakePayments(contracts *fakeContracts) *fakePayments {
	return &fakePayments{
		byCode:    make(map[string]*model.Payment),
		contracts: contracts,
		clock:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakePayments) FindByCode(_ context.Context, code string) (*model.Payment, error) {
	p, ok := f.byCode[code]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayments) ListByContract(_ context.Context, contractCode string) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range f.byCode {
		if p.ContractCode == contractCode {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.PaidAt.Equal(b.PaidAt) {
			return a.PaidAt.Before(b.PaidAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Code < b.Code
	})
	return out, nil
}

func (f *fakePayments) Create(_ context.Context, p *model.Payment) error {
	if _, exists := f.byCode[p.Code]; exists {
		return fmt.Errorf("duplicate payment code %s", p.Code)
	}
	f.nextID++
	p.ID = f.nextID
	f.clock = f.clock.Add(time.Second)
	p.CreatedAt = f.clock
	cp := *p
	f.byCode[p.Code] = &cp
	return nil
}

func (f *fakePayments) Update(_ context.Context, p *model.Payment) error {
	// Updates key on ID so Renumber can move a payment to a new code.
	for code, old := range f.byCode {
		if old.ID == p.ID {
			delete(f.byCode, code)
			cp := *p
			f.byCode[p.Code] = &cp
			return nil
		}
	}
	return fmt.Errorf("no such payment id %d", p.ID)
}

func (f *fakePayments) BulkCreate(ctx context.Context, ps []model.Payment) error {
	if f.bulkErr != nil {
		return f.bulkErr
	}
	for i := range ps {
		if err := f.Create(ctx, &ps[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakePayments) DeleteByProject(_ context.Context, projectCode string) (int64, error) {
	var n int64
	for code, p := range f.byCode {
		c := f.contracts.byCode[p.ContractCode]
		if c != nil && c.ProjectCode == projectCode {
			delete(f.byCode, code)
			n++
		}
	}
	return n, nil
}

type fakeEvaluations struct {
	byCode    map[string]*model.Evaluation
	contracts *fakeContracts
	nextID    int64
}

func newFakeEvaluations(contracts *fakeContracts) *fakeEvaluations {
	return &fakeEvaluations{byCode: make(map[string]*model.Evaluation), contracts: contracts}
}

func (f *fakeEvaluations) FindByCode(_ context.Context, code string) (*model.Evaluation, error) {
	e, ok := f.byCode[code]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEvaluations) Create(_ context.Context, e *model.Evaluation) error {
	if _, exists := f.byCode[e.Code]; exists {
		return fmt.Errorf("duplicate evaluation code %s", e.Code)
	}
	f.nextID++
	e.ID = f.nextID
	cp := *e
	f.byCode[e.Code] = &cp
	return nil
}

func (f *fakeEvaluations) Update(_ context.Context, e *model.Evaluation) error {
	if _, exists := f.byCode[e.Code]; !exists {
		return fmt.Errorf("no such evaluation %s", e.Code)
	}
	cp := *e
	f.byCode[e.Code] = &cp
	return nil
}

func (f *fakeEvaluations) DeleteByProject(_ context.Context, projectCode string) (int64, error) {
	var n int64
	for code, e := range f.byCode {
		c := f.contracts.byCode[e.ContractCode]
		if c != nil && c.ProjectCode == projectCode {
			delete(f.byCode, code)
			n++
		}
	}
	return n, nil
}

// fixture bundles the fakes with the Repos view passed to importers.
type fixture struct {
	projects     *fakeProjects
	procurements *fakeProcurements
	contracts    *fakeContracts
	payments     *fakePayments
	evaluations  *fakeEvaluations
	tx           *fakeTx
}

func newFixture() *fixture {
	contracts := newFakeContracts()
	return &fixture{
		projects:     newFakeProjects(),
		procurements: newFakeProcurements(),
		contracts:    contracts,
		payments:     newFakePayments(contracts),
		evaluations:  newFakeEvaluations(contracts),
		tx:           &fakeTx{},
	}
}

func (fx *fixture) repos() Repos {
	return Repos{
		Projects:     fx.projects,
		Procurements: fx.procurements,
		Contracts:    fx.contracts,
		Payments:     fx.payments,
		Evaluations:  fx.evaluations,
		Tx:           fx.tx,
	}
}

// row builds a Row from header/value pairs.
func row(line int, pairs ...string) Row {
	cells := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		cells[pairs[i]] = pairs[i+1]
	}
	return Row{Line: line, Cells: cells}
}

// date is a shorthand for a date-only UTC time.
func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
