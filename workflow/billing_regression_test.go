package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/models"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"bitbucket.org/mmdatafocus/cafe_backend/workflow"
	"github.com/shopspring/decimal"
)

// Full-stack billing regression tests against real MySQL + Redis in docker.
// Gated behind INTEGRATION_TESTS=1; everything unit-testable lives in the
// DB-free tests alongside the models.

func setupBillingEnv(t *testing.T) context.Context {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "cafe_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx := context.Background()
	ctx = utils.SetUserIdInContext(ctx, "test-waiter")
	ctx = utils.SetUserNameInContext(ctx, "Test Waiter")
	return ctx
}

func seedProduct(t *testing.T, ctx context.Context, name string, price int64, target models.StationRole) *models.Product {
	t.Helper()
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:       name,
		Category:   models.ProductCategoryHot,
		Price:      decimal.NewFromInt(price),
		TargetRole: target,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	return product
}

func mustInvoice(t *testing.T, ctx context.Context, orderId string) *models.Invoice {
	t.Helper()
	invoice, err := models.GetInvoice(ctx, orderId)
	if err != nil {
		t.Fatalf("GetInvoice(%s): %v", orderId, err)
	}
	return invoice
}

// Scenario: itemized check, partial payment, settlement, and the
// cancel-after-payment edge.
func TestBilling_PaymentLifecycle(t *testing.T) {
	ctx := setupBillingEnv(t)

	coffee := seedProduct(t, ctx, "Turkish Coffee", 30, models.StationRoleBarista)
	shisha := seedProduct(t, ctx, "Shisha Mint", 80, models.StationRoleShisha)

	order, err := workflow.CreateOrderUseCase(ctx, &models.NewOrder{TableLabel: "T1"})
	if err != nil {
		t.Fatalf("CreateOrderUseCase: %v", err)
	}
	if _, err := workflow.AddItemUseCase(ctx, order.ID, &models.NewOrderItem{ProductId: coffee.ID, Qty: 2}); err != nil {
		t.Fatalf("AddItemUseCase(coffee): %v", err)
	}
	if _, err := workflow.AddItemUseCase(ctx, order.ID, &models.NewOrderItem{ProductId: shisha.ID, Qty: 1}); err != nil {
		t.Fatalf("AddItemUseCase(shisha): %v", err)
	}

	if inv := mustInvoice(t, ctx, order.ID); !inv.Total.Equal(decimal.NewFromInt(140)) {
		t.Fatalf("expected total=140, got %s", inv.Total)
	}

	// Partial payment keeps the check open.
	if _, err := workflow.AddPaymentUseCase(ctx, order.ID, decimal.NewFromInt(100), "test-waiter"); err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	inv := mustInvoice(t, ctx, order.ID)
	if inv.Status != models.InvoiceStatusOpen || !inv.Remaining().Equal(decimal.NewFromInt(40)) {
		t.Fatalf("after partial payment: status=%s remaining=%s", inv.Status, inv.Remaining())
	}

	// Overpayment of the remainder is refused.
	_, err = workflow.AddPaymentUseCase(ctx, order.ID, decimal.NewFromInt(41), "test-waiter")
	if kind, ok := workflow.BillingKindOf(err); !ok || kind != workflow.ErrKindOverpayment {
		t.Fatalf("expected overpayment error, got %v", err)
	}

	// Exact remainder settles and closes the order.
	if _, err := workflow.AddPaymentUseCase(ctx, order.ID, decimal.NewFromInt(40), "test-waiter"); err != nil {
		t.Fatalf("settling payment: %v", err)
	}
	inv = mustInvoice(t, ctx, order.ID)
	if inv.Status != models.InvoiceStatusPaid {
		t.Fatalf("expected paid invoice, got %s", inv.Status)
	}
	closed, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if closed.Status != models.OrderStatusClosed {
		t.Fatalf("expected auto-closed order, got %s", closed.Status)
	}

	// Closed means no further payments.
	_, err = workflow.AddPaymentUseCase(ctx, order.ID, decimal.NewFromInt(10), "test-waiter")
	if kind, ok := workflow.BillingKindOf(err); !ok || kind != workflow.ErrKindOrderClosed {
		t.Fatalf("expected order-closed error, got %v", err)
	}
}

// Scenario: cancelled items drop out of the bill.
func TestBilling_CancelledItemRecalculates(t *testing.T) {
	ctx := setupBillingEnv(t)

	coffee := seedProduct(t, ctx, "Espresso", 35, models.StationRoleBarista)
	juice := seedProduct(t, ctx, "Mango Juice", 45, models.StationRoleBarista)

	order, err := workflow.CreateOrderUseCase(ctx, &models.NewOrder{TableLabel: "T2"})
	if err != nil {
		t.Fatalf("CreateOrderUseCase: %v", err)
	}
	item1, err := workflow.AddItemUseCase(ctx, order.ID, &models.NewOrderItem{ProductId: coffee.ID, Qty: 1})
	if err != nil {
		t.Fatalf("AddItemUseCase: %v", err)
	}
	if _, err := workflow.AddItemUseCase(ctx, order.ID, &models.NewOrderItem{ProductId: juice.ID, Qty: 2}); err != nil {
		t.Fatalf("AddItemUseCase: %v", err)
	}

	if inv := mustInvoice(t, ctx, order.ID); !inv.Total.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("expected total=125, got %s", inv.Total)
	}

	// An invoice read for an unknown order must not mint a zero-invoice row.
	if _, err := models.GetInvoice(ctx, "no-such-order"); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected record-not-found for unknown order invoice, got %v", err)
	}
	var orphans int64
	if err := config.GetDB().Model(&models.Invoice{}).Where("order_id = ?", "no-such-order").Count(&orphans).Error; err != nil {
		t.Fatalf("count orphan invoices: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("invoice read persisted a row for a nonexistent order")
	}

	if _, err := workflow.SetItemStatusUseCase(ctx, item1.ID, models.OrderItemStatusCancelled); err != nil {
		t.Fatalf("cancel item: %v", err)
	}
	if inv := mustInvoice(t, ctx, order.ID); !inv.Total.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected total=90 after cancellation, got %s", inv.Total)
	}

	// A cancelled item is terminal.
	_, err = workflow.SetItemStatusUseCase(ctx, item1.ID, models.OrderItemStatusSent)
	if kind, ok := workflow.BillingKindOf(err); !ok || kind != workflow.ErrKindInvalidTransition {
		t.Fatalf("expected invalid-transition error, got %v", err)
	}
}

// Scenario: split moves items to a sibling check; both bills settle
// independently and their totals add up to the original.
func TestBilling_SplitThenPaySeparately(t *testing.T) {
	ctx := setupBillingEnv(t)

	coffee := seedProduct(t, ctx, "Flat White", 40, models.StationRoleBarista)
	shisha := seedProduct(t, ctx, "Shisha Double Apple", 80, models.StationRoleShisha)

	src, err := workflow.CreateOrderUseCase(ctx, &models.NewOrder{TableLabel: "T3"})
	if err != nil {
		t.Fatalf("CreateOrderUseCase: %v", err)
	}
	if _, err := workflow.AddItemUseCase(ctx, src.ID, &models.NewOrderItem{ProductId: coffee.ID, Qty: 1}); err != nil {
		t.Fatalf("AddItemUseCase: %v", err)
	}
	moved, err := workflow.AddItemUseCase(ctx, src.ID, &models.NewOrderItem{ProductId: shisha.ID, Qty: 1})
	if err != nil {
		t.Fatalf("AddItemUseCase: %v", err)
	}

	preSplit := mustInvoice(t, ctx, src.ID)

	dst, err := workflow.SplitOrderUseCase(ctx, src.ID, []string{moved.ID, "no-such-item"}, "test-waiter")
	if err != nil {
		t.Fatalf("SplitOrderUseCase: %v", err)
	}
	if dst.TableLabel != src.TableLabel {
		t.Fatalf("split check must keep the table label: %q vs %q", dst.TableLabel, src.TableLabel)
	}

	srcInv := mustInvoice(t, ctx, src.ID)
	dstInv := mustInvoice(t, ctx, dst.ID)
	if !srcInv.Total.Add(dstInv.Total).Equal(preSplit.Total) {
		t.Fatalf("split must conserve value: %s + %s != %s", srcInv.Total, dstInv.Total, preSplit.Total)
	}
	if !dstInv.Total.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected moved item total=80 on new check, got %s", dstInv.Total)
	}

	// Each check settles on its own.
	if _, err := workflow.AddPaymentUseCase(ctx, src.ID, srcInv.Total, "test-waiter"); err != nil {
		t.Fatalf("pay source: %v", err)
	}
	if _, err := workflow.AddPaymentUseCase(ctx, dst.ID, dstInv.Total, "test-waiter"); err != nil {
		t.Fatalf("pay split: %v", err)
	}
	for _, id := range []string{src.ID, dst.ID} {
		order, err := models.GetOrder(ctx, id)
		if err != nil {
			t.Fatalf("GetOrder(%s): %v", id, err)
		}
		if order.Status != models.OrderStatusClosed {
			t.Fatalf("expected order %s closed after settlement, got %s", id, order.Status)
		}
	}
}

// Scenario: splitting is forbidden once money has changed hands.
func TestBilling_SplitAfterPaymentForbidden(t *testing.T) {
	ctx := setupBillingEnv(t)

	coffee := seedProduct(t, ctx, "Cortado", 40, models.StationRoleBarista)

	order, err := workflow.CreateOrderUseCase(ctx, &models.NewOrder{TableLabel: "T4"})
	if err != nil {
		t.Fatalf("CreateOrderUseCase: %v", err)
	}
	item, err := workflow.AddItemUseCase(ctx, order.ID, &models.NewOrderItem{ProductId: coffee.ID, Qty: 2})
	if err != nil {
		t.Fatalf("AddItemUseCase: %v", err)
	}
	if _, err := workflow.AddPaymentUseCase(ctx, order.ID, decimal.NewFromInt(10), "test-waiter"); err != nil {
		t.Fatalf("AddPaymentUseCase: %v", err)
	}

	_, err = workflow.SplitOrderUseCase(ctx, order.ID, []string{item.ID}, "test-waiter")
	kind, ok := workflow.BillingKindOf(err)
	if !ok || kind != workflow.ErrKindSplitAfterPaymentForbidden {
		t.Fatalf("expected split-after-payment error, got %v", err)
	}

	// The failed split must not have moved anything.
	items, err := models.ListOrderItems(ctx, order.ID)
	if err != nil {
		t.Fatalf("ListOrderItems: %v", err)
	}
	if len(items) != 1 || items[0].ID != item.ID {
		t.Fatalf("source order mutated by rejected split: %+v", items)
	}
}

// Scenario: post to credit, refuse cash, settle through the ledger.
func TestBilling_CreditPostingAndLedgerSettlement(t *testing.T) {
	ctx := setupBillingEnv(t)

	shisha := seedProduct(t, ctx, "Shisha Grape", 80, models.StationRoleShisha)
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Abu Ali", Phone: "01001234567"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	order, err := workflow.CreateOrderUseCase(ctx, &models.NewOrder{TableLabel: "T5"})
	if err != nil {
		t.Fatalf("CreateOrderUseCase: %v", err)
	}
	if _, err := workflow.AddItemUseCase(ctx, order.ID, &models.NewOrderItem{ProductId: shisha.ID, Qty: 2}); err != nil {
		t.Fatalf("AddItemUseCase: %v", err)
	}
	if _, err := workflow.AddPaymentUseCase(ctx, order.ID, decimal.NewFromInt(60), "test-waiter"); err != nil {
		t.Fatalf("partial payment: %v", err)
	}

	entryId, err := workflow.PostToCreditUseCase(ctx, order.ID, customer.ID, "end of night", "test-waiter")
	if err != nil {
		t.Fatalf("PostToCreditUseCase: %v", err)
	}
	if entryId == "" {
		t.Fatalf("expected a ledger entry for the remaining 100")
	}

	inv := mustInvoice(t, ctx, order.ID)
	if inv.Status != models.InvoiceStatusCredit {
		t.Fatalf("expected credit invoice, got %s", inv.Status)
	}

	// Re-posting while the debt is still outstanding (remaining > 0) must
	// be a no-op; a second charge would double the customer's debt.
	repostId, err := workflow.PostToCreditUseCase(ctx, order.ID, customer.ID, "double submit", "test-waiter")
	if err != nil {
		t.Fatalf("re-post while outstanding: %v", err)
	}
	if repostId != "" {
		t.Fatalf("expected no-op re-post while outstanding, got entry %s", repostId)
	}
	closed, err := models.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if closed.Status != models.OrderStatusClosed {
		t.Fatalf("expected closed order after credit posting, got %s", closed.Status)
	}

	balance, err := models.GetCustomerBalance(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomerBalance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance=100 (160 total - 60 cash), got %s", balance)
	}

	// Cash on a credit-posted check would double-book the debt.
	_, err = workflow.AddPaymentUseCase(ctx, order.ID, decimal.NewFromInt(100), "test-waiter")
	if kind, ok := workflow.BillingKindOf(err); !ok || (kind != workflow.ErrKindOrderClosed && kind != workflow.ErrKindCreditInvoice) {
		t.Fatalf("expected credit/closed refusal, got %v", err)
	}

	// Repayment goes through the customer ledger.
	if _, err := workflow.RecordLedgerPaymentUseCase(ctx, customer.ID, &models.NewLedgerEntry{
		Amount: decimal.NewFromInt(100),
		Note:   "paid next week",
	}); err != nil {
		t.Fatalf("RecordLedgerPaymentUseCase: %v", err)
	}
	balance, err = models.GetCustomerBalance(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomerBalance: %v", err)
	}
	if !balance.Equal(decimal.Zero) {
		t.Fatalf("expected settled balance, got %s", balance)
	}

	// Re-posting is a no-op, never a duplicate charge.
	entryId, err = workflow.PostToCreditUseCase(ctx, order.ID, customer.ID, "again", "test-waiter")
	if err != nil {
		t.Fatalf("re-post: %v", err)
	}
	if entryId != "" {
		t.Fatalf("expected no-op re-post, got entry %s", entryId)
	}
	entries, err := models.ListLedgerByCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("ListLedgerByCustomer: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries (charge + payment), got %d", len(entries))
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("cafe-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("cafe-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=cafe_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
