package expense

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/homebase-app/homebase/database"
)

// testDB connects to the database named by HOMEBASE_TEST_DATABASE_URL and
// runs the migrations. Tests that need it are skipped when the variable is
// unset so the suite stays runnable without Postgres.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("HOMEBASE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("HOMEBASE_TEST_DATABASE_URL not set")
	}

	db, err := database.Open(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.RunMigrations(db); err != nil {
		t.Fatal(err)
	}
	return db
}

// seedGroup inserts two profiles sharing a group with one expense list and
// returns their ids.
func seedGroup(t *testing.T, db *sql.DB) (groupID, listID, payerID, debtorID int64) {
	t.Helper()
	ctx := context.Background()

	suffix := time.Now().UnixNano()
	for i, email := range []string{
		fmt.Sprintf("payer%d@test.local", suffix),
		fmt.Sprintf("debtor%d@test.local", suffix),
	} {
		var id int64
		err := db.QueryRowContext(ctx, `
            INSERT INTO profile (profile_name, email, password_hash)
            VALUES ($1, $2, 'x')
            RETURNING profile_id
        `, fmt.Sprintf("tester%d", i), email).Scan(&id)
		if err != nil {
			t.Fatal(err)
		}
		if i == 0 {
			payerID = id
		} else {
			debtorID = id
		}
	}

	err := db.QueryRowContext(ctx, `
        INSERT INTO household_group (group_name, join_code)
        VALUES ('test household', $1)
        RETURNING group_id
    `, fmt.Sprintf("T%d", suffix%10000000)).Scan(&groupID)
	if err != nil {
		t.Fatal(err)
	}
	for _, pid := range []int64{payerID, debtorID} {
		if _, err := db.ExecContext(ctx, `
            INSERT INTO group_profile (group_id, profile_id) VALUES ($1, $2)
        `, groupID, pid); err != nil {
			t.Fatal(err)
		}
	}

	err = db.QueryRowContext(ctx, `
        INSERT INTO expense_list (list_name, group_id)
        VALUES ('test list', $1)
        RETURNING list_id
    `, groupID).Scan(&listID)
	if err != nil {
		t.Fatal(err)
	}
	return groupID, listID, payerID, debtorID
}

// seedProfile inserts one more profile and adds it to the group.
func seedProfile(t *testing.T, db *sql.DB, groupID int64, name string) int64 {
	t.Helper()
	ctx := context.Background()

	var id int64
	err := db.QueryRowContext(ctx, `
        INSERT INTO profile (profile_name, email, password_hash)
        VALUES ($1, $2, 'x')
        RETURNING profile_id
    `, name, fmt.Sprintf("%s%d@test.local", name, time.Now().UnixNano())).Scan(&id)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx, `
        INSERT INTO group_profile (group_id, profile_id) VALUES ($1, $2)
    `, groupID, id); err != nil {
		t.Fatal(err)
	}
	return id
}

// seedExtraGroup creates a second group with a list and adds the given
// profiles to it.
func seedExtraGroup(t *testing.T, db *sql.DB, profileIDs ...int64) (groupID, listID int64) {
	t.Helper()
	ctx := context.Background()

	err := db.QueryRowContext(ctx, `
        INSERT INTO household_group (group_name, join_code)
        VALUES ('second household', $1)
        RETURNING group_id
    `, fmt.Sprintf("S%d", time.Now().UnixNano()%10000000)).Scan(&groupID)
	if err != nil {
		t.Fatal(err)
	}
	for _, pid := range profileIDs {
		if _, err := db.ExecContext(ctx, `
            INSERT INTO group_profile (group_id, profile_id) VALUES ($1, $2)
        `, groupID, pid); err != nil {
			t.Fatal(err)
		}
	}
	err = db.QueryRowContext(ctx, `
        INSERT INTO expense_list (list_name, group_id)
        VALUES ('second list', $1)
        RETURNING list_id
    `, groupID).Scan(&listID)
	if err != nil {
		t.Fatal(err)
	}
	return groupID, listID
}

func TestRepositoryExpenseLifecycle(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, listID, payerID, debtorID := seedGroup(t, db)

	item, err := repo.CreateExpense(ctx, CreateItem{
		Name:      "Groceries",
		ListID:    listID,
		TotalCost: dec("50.00"),
		PaidByID:  payerID,
		Splits: []SplitInput{
			{ProfileID: payerID, AmountOwed: dec("25.00")},
			{ProfileID: debtorID, AmountOwed: dec("25.00")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if item.ID == 0 || len(item.Splits) != 2 {
		t.Fatalf("unexpected item: %+v", item)
	}

	t.Run("debtor balance reflects the split", func(t *testing.T) {
		balance, err := repo.NetBalance(ctx, debtorID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !balance.TotalIOwe.Equal(dec("25.00")) {
			t.Errorf("total i owe = %s, want 25.00", balance.TotalIOwe)
		}
		if !balance.NetBalance.Equal(dec("-25.00")) {
			t.Errorf("net balance = %s, want -25.00", balance.NetBalance)
		}
	})

	t.Run("settling is idempotent", func(t *testing.T) {
		var debtorSplit int64
		for _, s := range item.Splits {
			if s.ProfileID == debtorID {
				debtorSplit = s.ID
			}
		}

		first, err := repo.SettleSplit(ctx, debtorSplit)
		if err != nil {
			t.Fatal(err)
		}
		if !first.IsSettled || first.SettledAt == nil {
			t.Fatalf("split not settled: %+v", first)
		}

		second, err := repo.SettleSplit(ctx, debtorSplit)
		if err != nil {
			t.Fatal(err)
		}
		if !second.SettledAt.Equal(*first.SettledAt) {
			t.Errorf("settle timestamp moved on repeat: %v vs %v", second.SettledAt, first.SettledAt)
		}
	})

	t.Run("soft delete hides the item", func(t *testing.T) {
		deleted, err := repo.SoftDelete(ctx, item.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !deleted {
			t.Fatal("expected first delete to report true")
		}

		if _, err := repo.GetExpense(ctx, item.ID); err != ErrItemNotFound {
			t.Errorf("err = %v, want ErrItemNotFound", err)
		}

		again, err := repo.SoftDelete(ctx, item.ID)
		if err != nil {
			t.Fatal(err)
		}
		if again {
			t.Error("second delete should report false")
		}
	})
}

func TestRepositoryAggregates(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	groupID, listID, payerID, debtorID := seedGroup(t, db)
	thirdID := seedProfile(t, db, groupID, "third")
	fourthID := seedProfile(t, db, groupID, "fourth")

	mustCreate := func(name string, listID int64, total string, paidBy int64, splits []SplitInput) *ItemWithSplits {
		t.Helper()
		item, err := repo.CreateExpense(ctx, CreateItem{
			Name:      name,
			ListID:    listID,
			TotalCost: dec(total),
			PaidByID:  paidBy,
			Splits:    splits,
		})
		if err != nil {
			t.Fatal(err)
		}
		return item
	}

	// The payer ends up owed 22-10=12 by the debtor and 8 by the third
	// member; the fourth member's two expenses cancel out exactly.
	shared := mustCreate("Groceries", listID, "30.00", payerID, []SplitInput{
		{ProfileID: debtorID, AmountOwed: dec("22.00")},
		{ProfileID: thirdID, AmountOwed: dec("8.00")},
	})
	mustCreate("Takeout", listID, "10.00", debtorID, []SplitInput{
		{ProfileID: payerID, AmountOwed: dec("10.00")},
	})
	mustCreate("Taxi", listID, "10.00", payerID, []SplitInput{
		{ProfileID: fourthID, AmountOwed: dec("10.00")},
	})
	mustCreate("Cinema", listID, "10.00", fourthID, []SplitInput{
		{ProfileID: payerID, AmountOwed: dec("10.00")},
	})

	t.Run("counterparty balances drop zero nets and order by amount", func(t *testing.T) {
		balances, err := repo.BalancesByCounterparty(ctx, payerID, &groupID)
		if err != nil {
			t.Fatal(err)
		}
		if len(balances) != 2 {
			t.Fatalf("got %d counterparties, want 2 (zero net must be excluded): %+v", len(balances), balances)
		}
		if balances[0].ProfileID != debtorID || !balances[0].Amount.Equal(dec("12.00")) {
			t.Errorf("first counterparty = %+v, want debtor owing 12.00", balances[0])
		}
		if balances[1].ProfileID != thirdID || !balances[1].Amount.Equal(dec("8.00")) {
			t.Errorf("second counterparty = %+v, want third owing 8.00", balances[1])
		}
		for _, b := range balances {
			if b.ProfileID == fourthID {
				t.Error("counterparty with zero net must not appear")
			}
		}
	})

	t.Run("settled filter includes and excludes the settled split", func(t *testing.T) {
		var thirdSplit int64
		for _, s := range shared.Splits {
			if s.ProfileID == thirdID {
				thirdSplit = s.ID
			}
		}
		if _, err := repo.SettleSplit(ctx, thirdSplit); err != nil {
			t.Fatal(err)
		}

		settled := true
		got, err := repo.SplitsForProfile(ctx, thirdID, nil, &settled)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].ID != thirdSplit {
			t.Fatalf("settled=true should return the settled split, got %+v", got)
		}

		settled = false
		got, err = repo.SplitsForProfile(ctx, thirdID, nil, &settled)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Fatalf("settled=false should exclude the settled split, got %+v", got)
		}
	})

	t.Run("settlement removes the counterparty from the breakdown", func(t *testing.T) {
		balances, err := repo.BalancesByCounterparty(ctx, payerID, &groupID)
		if err != nil {
			t.Fatal(err)
		}
		for _, b := range balances {
			if b.ProfileID == thirdID {
				t.Errorf("settled counterparty should drop out, got %+v", balances)
			}
		}
	})

	t.Run("group filter scopes the splits listing", func(t *testing.T) {
		otherGroupID, otherListID := seedExtraGroup(t, db, payerID, debtorID)
		mustCreate("Paint", otherListID, "5.00", payerID, []SplitInput{
			{ProfileID: debtorID, AmountOwed: dec("5.00")},
		})

		scoped, err := repo.SplitsForProfile(ctx, debtorID, &otherGroupID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(scoped) != 1 || scoped[0].GroupID != otherGroupID {
			t.Fatalf("group filter should return only the second group's split, got %+v", scoped)
		}

		all, err := repo.SplitsForProfile(ctx, debtorID, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) < 2 {
			t.Fatalf("unfiltered listing should span both groups, got %d splits", len(all))
		}
	})

	t.Run("statistics bucket the payer's spending", func(t *testing.T) {
		stats, err := repo.Statistics(ctx, payerID, &groupID, 12)
		if err != nil {
			t.Fatal(err)
		}
		if !stats.TotalSpent.Equal(dec("40.00")) {
			t.Errorf("total spent = %s, want 40.00", stats.TotalSpent)
		}
		// Everything was created just now, so exactly one weekly and one
		// monthly bucket exist; the rest of the window stays omitted.
		if len(stats.Weekly) != 1 {
			t.Fatalf("got %d weekly buckets, want 1: %+v", len(stats.Weekly), stats.Weekly)
		}
		if !stats.Weekly[0].Total.Equal(dec("40.00")) {
			t.Errorf("weekly total = %s, want 40.00", stats.Weekly[0].Total)
		}
		if len(stats.Monthly) != 1 {
			t.Fatalf("got %d monthly buckets, want 1: %+v", len(stats.Monthly), stats.Monthly)
		}
		if !stats.Monthly[0].Total.Equal(dec("40.00")) {
			t.Errorf("monthly total = %s, want 40.00", stats.Monthly[0].Total)
		}
	})
}

func TestRepositoryDuplicateListName(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	groupID, _, _, _ := seedGroup(t, db)

	if _, err := repo.CreateList(ctx, groupID, "Utilities"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateList(ctx, groupID, "Utilities"); err != ErrListNameTaken {
		t.Errorf("err = %v, want ErrListNameTaken", err)
	}
}
