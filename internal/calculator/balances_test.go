package calculator

import (
	"errors"
	"testing"

	"github.com/mmynk/splitease/internal/models"
	"github.com/mmynk/splitease/internal/money"
)

// equalExpense builds an expense split equally across participants.
func equalExpense(t *testing.T, payer string, amount money.Amount, participants ...string) ExpenseForBalance {
	t.Helper()
	amounts, err := money.SplitEqually(amount, len(participants))
	if err != nil {
		t.Fatalf("SplitEqually failed: %v", err)
	}
	shares := make([]ShareForBalance, len(participants))
	for i, p := range participants {
		shares[i] = ShareForBalance{Participant: p, Amount: amounts[i]}
	}
	return ExpenseForBalance{Payer: payer, Amount: amount, Shares: shares}
}

func TestAccumulate(t *testing.T) {
	tests := []struct {
		name        string
		expenses    func(t *testing.T) []ExpenseForBalance
		settlements []SettlementForBalance
		wantNets    map[string]money.Amount
		wantOwes    map[[2]string]money.Amount
	}{
		{
			name: "payer is a participant",
			expenses: func(t *testing.T) []ExpenseForBalance {
				return []ExpenseForBalance{equalExpense(t, "Alice", money.FromMajor(300), "Alice", "Bob", "Charlie")}
			},
			wantNets: map[string]money.Amount{
				"Alice":   money.FromMajor(200),
				"Bob":     money.FromMajor(-100),
				"Charlie": money.FromMajor(-100),
			},
			wantOwes: map[[2]string]money.Amount{
				{"Bob", "Alice"}:     money.FromMajor(100),
				{"Alice", "Bob"}:     money.FromMajor(-100),
				{"Charlie", "Alice"}: money.FromMajor(100),
				{"Bob", "Charlie"}:   0,
			},
		},
		{
			name: "payer is not a participant",
			expenses: func(t *testing.T) []ExpenseForBalance {
				return []ExpenseForBalance{equalExpense(t, "Alice", money.FromMajor(100), "Bob", "Charlie")}
			},
			wantNets: map[string]money.Amount{
				"Alice":   money.FromMajor(100),
				"Bob":     money.FromMajor(-50),
				"Charlie": money.FromMajor(-50),
			},
			wantOwes: map[[2]string]money.Amount{
				{"Bob", "Alice"}:     money.FromMajor(50),
				{"Charlie", "Alice"}: money.FromMajor(50),
			},
		},
		{
			name: "self expense contributes nothing",
			expenses: func(t *testing.T) []ExpenseForBalance {
				return []ExpenseForBalance{equalExpense(t, "Alice", money.FromMajor(80), "Alice")}
			},
			wantNets: map[string]money.Amount{"Alice": 0},
			wantOwes: map[[2]string]money.Amount{{"Alice", "Alice"}: 0},
		},
		{
			name: "settlement reduces debt",
			expenses: func(t *testing.T) []ExpenseForBalance {
				return []ExpenseForBalance{equalExpense(t, "Alice", money.FromMajor(300), "Alice", "Bob", "Charlie")}
			},
			settlements: []SettlementForBalance{{FromUser: "Bob", ToUser: "Alice", Amount: money.FromMajor(100)}},
			wantNets: map[string]money.Amount{
				"Alice":   money.FromMajor(100),
				"Bob":     0,
				"Charlie": money.FromMajor(-100),
			},
			wantOwes: map[[2]string]money.Amount{
				{"Bob", "Alice"}:     0,
				{"Charlie", "Alice"}: money.FromMajor(100),
			},
		},
		{
			name: "overpaying flips the direction",
			expenses: func(t *testing.T) []ExpenseForBalance {
				return []ExpenseForBalance{equalExpense(t, "Alice", money.FromMajor(100), "Alice", "Bob")}
			},
			settlements: []SettlementForBalance{{FromUser: "Bob", ToUser: "Alice", Amount: money.FromMajor(80)}},
			wantNets: map[string]money.Amount{
				"Alice": money.FromMajor(-30),
				"Bob":   money.FromMajor(30),
			},
			wantOwes: map[[2]string]money.Amount{
				{"Bob", "Alice"}: money.FromMajor(-30),
				{"Alice", "Bob"}: money.FromMajor(30),
			},
		},
		{
			name: "uneven split keeps exact totals",
			expenses: func(t *testing.T) []ExpenseForBalance {
				return []ExpenseForBalance{equalExpense(t, "Charlie", money.FromMajor(100), "Alice", "Bob", "Charlie")}
			},
			wantNets: map[string]money.Amount{
				"Alice":   -3334,
				"Bob":     -3333,
				"Charlie": 6667,
			},
		},
		{
			name: "settlement between strangers",
			expenses: func(t *testing.T) []ExpenseForBalance {
				return nil
			},
			settlements: []SettlementForBalance{{FromUser: "Dave", ToUser: "Erin", Amount: 500}},
			wantNets: map[string]money.Amount{
				"Dave": 500,
				"Erin": -500,
			},
			wantOwes: map[[2]string]money.Amount{
				{"Erin", "Dave"}: 500,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Accumulate(tt.expenses(t), tt.settlements)

			nets := b.Nets()
			if len(nets) != len(tt.wantNets) {
				t.Errorf("got %d identities, want %d (%v)", len(nets), len(tt.wantNets), nets)
			}
			for identity, want := range tt.wantNets {
				if got := b.Net(identity); got != want {
					t.Errorf("Net(%s) = %s, want %s", identity, got, want)
				}
			}
			for pair, want := range tt.wantOwes {
				if got := b.Owes(pair[0], pair[1]); got != want {
					t.Errorf("Owes(%s, %s) = %s, want %s", pair[0], pair[1], got, want)
				}
			}

			var total money.Amount
			for _, net := range nets {
				total += net
			}
			if total != 0 {
				t.Errorf("nets sum to %s, want 0", total)
			}
		})
	}
}

func TestAccumulate_MatrixIsAntisymmetric(t *testing.T) {
	b := Accumulate([]ExpenseForBalance{
		equalExpense(t, "Alice", 10000, "Alice", "Bob", "Charlie"),
		equalExpense(t, "Bob", 4500, "Alice", "Charlie"),
		equalExpense(t, "Charlie", 999, "Bob"),
	}, []SettlementForBalance{
		{FromUser: "Charlie", ToUser: "Alice", Amount: 1234},
	})

	ids := b.Identities()
	for _, a := range ids {
		var rowSum money.Amount
		for _, c := range ids {
			if b.Owes(a, c) != -b.Owes(c, a) {
				t.Errorf("Owes(%s,%s)=%s but Owes(%s,%s)=%s", a, c, b.Owes(a, c), c, a, b.Owes(c, a))
			}
			rowSum += b.Owes(c, a)
		}
		if rowSum != b.Net(a) {
			t.Errorf("column sum for %s = %s, net = %s", a, rowSum, b.Net(a))
		}
	}
}

func TestMembersTotals(t *testing.T) {
	b := Accumulate([]ExpenseForBalance{
		equalExpense(t, "Alice", money.FromMajor(300), "Alice", "Bob", "Charlie"),
	}, []SettlementForBalance{
		{FromUser: "Bob", ToUser: "Alice", Amount: money.FromMajor(40)},
	})

	members := b.Members()
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
	alice := members[0]
	if alice.Identity != "Alice" {
		t.Fatalf("expected members sorted, got %s first", alice.Identity)
	}
	if alice.TotalPaid != money.FromMajor(300) {
		t.Errorf("Alice TotalPaid = %s, want 300.00", alice.TotalPaid)
	}
	if alice.TotalOwed != money.FromMajor(140) {
		t.Errorf("Alice TotalOwed = %s, want 140.00", alice.TotalOwed)
	}
	if alice.NetBalance != money.FromMajor(160) {
		t.Errorf("Alice NetBalance = %s, want 160.00", alice.NetBalance)
	}
}

func TestRelativeTo(t *testing.T) {
	b := Accumulate([]ExpenseForBalance{
		equalExpense(t, "Alice", money.FromMajor(300), "Alice", "Bob", "Charlie"),
		equalExpense(t, "Bob", money.FromMajor(60), "Alice", "Bob"),
	}, nil)

	got := b.RelativeTo("Alice")
	want := []Counterparty{
		{Identity: "Bob", Amount: money.FromMajor(70)},
		{Identity: "Charlie", Amount: money.FromMajor(100)},
	}
	if len(got) != len(want) {
		t.Fatalf("RelativeTo returned %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if cp := b.RelativeTo("Charlie"); len(cp) != 1 || cp[0].Amount != money.FromMajor(-100) {
		t.Errorf("RelativeTo(Charlie) = %+v, want Alice -100.00", cp)
	}
	if cp := b.RelativeTo("Nobody"); len(cp) != 0 {
		t.Errorf("RelativeTo(Nobody) = %+v, want empty", cp)
	}
}

func TestVerify(t *testing.T) {
	t.Run("consistent ledger", func(t *testing.T) {
		b := Accumulate([]ExpenseForBalance{
			equalExpense(t, "Alice", money.FromMajor(100), "Alice", "Bob", "Charlie"),
		}, []SettlementForBalance{
			{FromUser: "Charlie", ToUser: "Alice", Amount: money.FromMajor(50)},
		})
		if err := b.Verify(); err != nil {
			t.Fatalf("Verify() = %v, want nil", err)
		}
	})

	t.Run("shares short of the amount", func(t *testing.T) {
		b := Accumulate([]ExpenseForBalance{
			{Payer: "A", Amount: 1000, Shares: []ShareForBalance{{Participant: "B", Amount: 400}}},
		}, nil)

		// Nets come from the matrix, so they still balance each other
		if got := b.Net("A"); got != 400 {
			t.Errorf("Net(A) = %s, want 4.00", got)
		}
		if got := b.Net("B"); got != -400 {
			t.Errorf("Net(B) = %s, want -4.00", got)
		}

		var computation *models.ComputationError
		if err := b.Verify(); !errors.As(err, &computation) {
			t.Fatalf("Verify() = %v, want ComputationError", err)
		}
	})
}
