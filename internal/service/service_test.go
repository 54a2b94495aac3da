package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/content"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/ledger"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/repository"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/signing"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/verify"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/config"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/jwtutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

type countingLedger struct {
	calls int
}

func (l *countingLedger) Record(context.Context, ledger.Attestation) (int64, error) {
	l.calls++
	return 0, ledger.ErrUnavailable
}

func (l *countingLedger) Fetch(context.Context, int64) (*ledger.Attestation, error) {
	return nil, ledger.ErrUnavailable
}

type productFixture struct {
	repo    *repository.MemoryStore
	store   *content.FallbackStore
	notary  *ledger.Notary
	signer  signing.Signer
	service *ProductService
}

func newProductFixture(t *testing.T, primary ledger.Ledger) *productFixture {
	t.Helper()
	signer, err := signing.New(testKey)
	if err != nil {
		t.Fatal(err)
	}
	f := &productFixture{
		repo:   repository.NewMemoryStore(),
		store:  content.NewFallbackStore(nil, content.NewLocalStore(), zap.NewNop()),
		notary: ledger.NewNotary(primary, ledger.NewLocalLedger(), zap.NewNop()),
		signer: signer,
	}
	f.service = NewProductService(f.repo, f.store, f.notary, signer, zap.NewNop())
	return f
}

func TestCreateProductThenVerify(t *testing.T) {
	ctx := context.Background()
	primary := &countingLedger{}
	f := newProductFixture(t, primary)

	res, err := f.service.Create(ctx, CreateProductInput{
		Name:              "Widget",
		Description:       "A widget",
		SerialNumber:      "SN-1",
		BatchID:           "B-1",
		ManufacturingDate: "2024-05-01",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if primary.calls != 1 {
		t.Fatalf("primary ledger called %d times, want exactly 1", primary.calls)
	}
	if res.Modes.Ledger != ledger.ModeDegraded || res.Modes.Content != content.ModeDegraded || res.Modes.Token != signing.ModeSigned {
		t.Fatalf("modes = %+v", res.Modes)
	}
	if len(res.ContentID) != 46 || len(res.MetadataHash) != 64 || len(res.VerificationToken) != 130 {
		t.Fatalf("result = %+v", res)
	}

	var qr QRPayload
	if err := json.Unmarshal([]byte(res.QRCode), &qr); err != nil {
		t.Fatalf("qr payload: %v", err)
	}
	if qr.TokenID != res.RecordID || qr.VerificationToken != res.VerificationToken {
		t.Fatalf("qr = %+v", qr)
	}

	p, err := f.repo.GetProduct(ctx, res.ProductID)
	if err != nil {
		t.Fatal(err)
	}
	if p.ManufacturingDate != "01-05-24" || p.Status != model.ActionManufactured {
		t.Fatalf("product = %+v", p)
	}

	events, _ := f.repo.ListEvents(ctx, res.ProductID)
	if len(events) != 1 {
		t.Fatalf("events = %+v", events)
	}
	founding := events[0]
	if founding.Action != model.ActionManufactured || founding.PreviousContentID != nil || founding.NewContentID != res.ContentID {
		t.Fatalf("founding event = %+v", founding)
	}
	if founding.Notes != "Product manufactured with serial number SN-1" || founding.Location != "Manufacturing Facility" {
		t.Fatalf("founding event = %+v", founding)
	}

	engine := verify.NewEngine(f.repo, f.notary, f.store, f.signer, zap.NewNop())
	verdict := engine.Verify(ctx, res.RecordID, res.VerificationToken)
	if verdict.Status != verify.StatusGenuine || !verdict.Authentic {
		t.Fatalf("verdict = %+v", verdict)
	}
	if wrong := engine.Verify(ctx, res.RecordID, "deadbeef"); wrong.Status != verify.StatusInvalid {
		t.Fatalf("wrong token verdict = %+v", wrong)
	}
}

func TestProductVerifiesAfterRestart(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture(t, nil)

	res, err := f.service.Create(ctx, CreateProductInput{Name: "Widget", SerialNumber: "SN-1", BatchID: "B-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// same repository, fresh memory-only fallbacks
	notary := ledger.NewNotary(nil, ledger.NewLocalLedger().WithIndex(f.repo), zap.NewNop())
	store := content.NewFallbackStore(nil, content.NewLocalStore(), zap.NewNop())
	engine := verify.NewEngine(f.repo, notary, store, f.signer, zap.NewNop())

	verdict := engine.Verify(ctx, res.RecordID, res.VerificationToken)
	if verdict.Status != verify.StatusGenuine || !verdict.Authentic {
		t.Fatalf("verdict after restart = %+v", verdict)
	}

	// minting again after the restart must not reuse the stored record id
	svc := NewProductService(f.repo, store, notary, f.signer, zap.NewNop())
	second, err := svc.Create(ctx, CreateProductInput{Name: "Gadget", SerialNumber: "SN-2"})
	if err != nil {
		t.Fatalf("Create after restart: %v", err)
	}
	if second.RecordID == res.RecordID {
		t.Fatalf("record id %d reused", res.RecordID)
	}
}

func TestCreateProductKeepsUnparseableDate(t *testing.T) {
	f := newProductFixture(t, nil)
	res, err := f.service.Create(context.Background(), CreateProductInput{Name: "W", SerialNumber: "S", ManufacturingDate: "spring 2024"})
	if err != nil {
		t.Fatal(err)
	}
	p, _ := f.repo.GetProduct(context.Background(), res.ProductID)
	if p.ManufacturingDate != "spring 2024" {
		t.Fatalf("date = %q", p.ManufacturingDate)
	}
}

func TestCreateProductRequiresNameAndSerial(t *testing.T) {
	f := newProductFixture(t, nil)
	_, err := f.service.Create(context.Background(), CreateProductInput{Name: "W"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}

func TestListProductsEmpty(t *testing.T) {
	f := newProductFixture(t, nil)
	products, err := f.service.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if products == nil || len(products) != 0 {
		t.Fatalf("products = %#v", products)
	}
}

func TestInvoiceScoreIsComputed(t *testing.T) {
	repo := repository.NewMemoryStore()
	svc := NewInvoiceService(repo, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	inv, err := svc.Create(context.Background(), CreateInvoiceInput{
		Amount:      decimal.NewFromInt(5),
		Buyer:       "Acme",
		DueDate:     "2024-06-18T12:00:00",
		Description: "stable and reliable supplier",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if inv.RiskScore != 39 {
		t.Fatalf("risk score = %d, want 39", inv.RiskScore)
	}
	if inv.DueDate != "18-06-24" {
		t.Fatalf("due date = %q", inv.DueDate)
	}

	list, _ := svc.List(context.Background())
	if len(list) != 1 || list[0].ID != inv.ID {
		t.Fatalf("list = %+v", list)
	}

	if _, err := svc.Create(context.Background(), CreateInvoiceInput{Amount: decimal.NewFromInt(-1), Buyer: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative amount: err = %v", err)
	}
}

func TestFundingSummary(t *testing.T) {
	ctx := context.Background()
	svc := NewFundingService(repository.NewMemoryStore())

	got, err := svc.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != model.DefaultFundingSummary() {
		t.Fatalf("zero state = %+v", got)
	}

	if err := svc.Save(ctx, model.FundingSummary{TotalInvested: 3, ActiveInvestments: 1, Status: "active"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Save(ctx, model.FundingSummary{TotalInvested: 7, ActiveInvestments: 2, Status: "active"}); err != nil {
		t.Fatal(err)
	}
	got, _ = svc.Get(ctx)
	if got.TotalInvested != 7 || got.ActiveInvestments != 2 || got.UpdatedAt.IsZero() {
		t.Fatalf("summary = %+v", got)
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	jwt := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "secret", ExpirationTime: time.Hour})
	repo := repository.NewMemoryStore()
	svc := NewAuthService(repo, jwt, bcrypt.MinCost)

	tok, err := svc.Register(ctx, "Ann", "Ann@Example.com", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if tok.TokenType != "bearer" {
		t.Fatalf("token = %+v", tok)
	}
	claims, err := jwt.ValidateToken(tok.AccessToken)
	if err != nil || claims.Email != "ann@example.com" {
		t.Fatalf("claims = %+v, %v", claims, err)
	}

	u, _ := repo.GetUserByEmail(ctx, "ann@example.com")
	if u.Password == "pw" {
		t.Fatal("password stored in clear")
	}

	if _, err := svc.Register(ctx, "Ann", "ann@example.com", "other"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate: err = %v", err)
	}
	if _, err := svc.Login(ctx, "ann@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.Login(ctx, "ann@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: err = %v", err)
	}
}
