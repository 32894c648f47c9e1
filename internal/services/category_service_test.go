package services

import (
	"testing"

	"khata/internal/models"
	"khata/internal/testutil"
)

func TestGetUserCategories(t *testing.T) {
	t.Run("seeds_defaults_on_first_access", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		categories, err := svc.GetUserCategories(user.ID)
		testutil.AssertNoError(t, err)

		if len(categories) != len(models.DefaultCategories) {
			t.Fatalf("expected %d default categories, got %d", len(models.DefaultCategories), len(categories))
		}
		for _, c := range categories {
			if !c.IsDefault {
				t.Errorf("expected category %q to be a default", c.Name)
			}
		}
	})

	t.Run("seeding_is_idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetUserCategories(user.ID)
		testutil.AssertNoError(t, err)
		categories, err := svc.GetUserCategories(user.ID)
		testutil.AssertNoError(t, err)

		if len(categories) != len(models.DefaultCategories) {
			t.Errorf("expected %d categories after second access, got %d", len(models.DefaultCategories), len(categories))
		}
	})

	t.Run("defaults_listed_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "Auto Repair", "build", "#112233")
		testutil.AssertNoError(t, err)

		categories, err := svc.GetUserCategories(user.ID)
		testutil.AssertNoError(t, err)

		if !categories[0].IsDefault {
			t.Error("expected defaults before custom categories")
		}
		last := categories[len(categories)-1]
		if last.IsDefault || last.Name != "Auto Repair" {
			t.Errorf("expected custom category last, got %q (default=%v)", last.Name, last.IsDefault)
		}
	})
}

func TestCreateCategory(t *testing.T) {
	t.Run("duplicate_name_case_insensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "Groceries", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateCategory(user.ID, "GROCERIES", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("duplicate_of_default", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "food", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("same_name_different_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(alice.ID, "Groceries", "", "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(bob.ID, "Groceries", "", "")
		testutil.AssertNoError(t, err)
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("rename_custom", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		category, err := svc.CreateCategory(user.ID, "Groceries", "", "")
		testutil.AssertNoError(t, err)

		name := "Household"
		updated, err := svc.UpdateCategory(user.ID, category.ID, &name, nil, nil)
		testutil.AssertNoError(t, err)
		if updated.Name != "Household" {
			t.Errorf("expected renamed category, got %q", updated.Name)
		}
	})

	t.Run("default_is_immutable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		categories, err := svc.GetUserCategories(user.ID)
		testutil.AssertNoError(t, err)

		name := "Renamed"
		_, err = svc.UpdateCategory(user.ID, categories[0].ID, &name, nil, nil)
		testutil.AssertAppError(t, err, "CATEGORY_IMMUTABLE")
	})

	t.Run("rename_to_existing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "Groceries", "", "")
		testutil.AssertNoError(t, err)
		other, err := svc.CreateCategory(user.ID, "Household", "", "")
		testutil.AssertNoError(t, err)

		name := "groceries"
		_, err = svc.UpdateCategory(user.ID, other.ID, &name, nil, nil)
		testutil.AssertAppError(t, err, "DUPLICATE_CATEGORY")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		name := "Anything"
		_, err := svc.UpdateCategory(user.ID, "00000000-0000-0000-0000-000000000000", &name, nil, nil)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("delete_custom", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		category, err := svc.CreateCategory(user.ID, "Groceries", "", "")
		testutil.AssertNoError(t, err)

		err = svc.DeleteCategory(user.ID, category.ID)
		testutil.AssertNoError(t, err)
	})

	t.Run("default_is_immutable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		categories, err := svc.GetUserCategories(user.ID)
		testutil.AssertNoError(t, err)

		err = svc.DeleteCategory(user.ID, categories[0].ID)
		testutil.AssertAppError(t, err, "CATEGORY_IMMUTABLE")
	})

	t.Run("mirrors_list_when_auto_backup_on", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		testutil.EnableAutoBackup(t, db, user.ID)

		category, err := svc.CreateCategory(user.ID, "Groceries", "", "")
		testutil.AssertNoError(t, err)
		err = svc.DeleteCategory(user.ID, category.ID)
		testutil.AssertNoError(t, err)

		var count int64
		if err := db.Model(&models.OutboxEntry{}).
			Where("user_id = ? AND op = ?", user.ID, models.OutboxOpUpsert).
			Count(&count).Error; err != nil {
			t.Fatalf("counting outbox rows: %v", err)
		}
		// One full-list upsert per mutation.
		if count != 2 {
			t.Errorf("expected 2 category list upserts, got %d", count)
		}
	})
}
