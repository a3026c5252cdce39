package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/batmanuel-sandbox/refcat/internal/catalog"
	"github.com/batmanuel-sandbox/refcat/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and
// expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func testLayout(t *testing.T) *catalog.Layout {
	t.Helper()
	l, err := catalog.NewLayout([]catalog.Field{
		{Name: "coord_ra_err", Type: catalog.Float64},
		{Name: "coord_dec_err", Type: catalog.Float64},
		{Name: "g_flux", Type: catalog.Float64},
	})
	if err != nil {
		t.Fatalf("NewLayout: %v", err)
	}
	return l
}

func TestShardExists(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM shards WHERE key = \$1\)`).
		WithArgs("cal_ref_cat/2048").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := queryShardExists(context.Background(), db, "cal_ref_cat/2048")
	if err != nil {
		t.Fatalf("queryShardExists: %v", err)
	}
	if !ok {
		t.Error("expected exists = true")
	}
}

func TestGetShard(t *testing.T) {
	db, mock := newMockDB(t)
	layout := testLayout(t)

	layoutData, _ := json.Marshal(layout)
	recordData, _ := json.Marshal([]catalog.Record{
		{
			ID: 1, Parent: catalog.NoParent, RA: 10.5, Dec: -3.25,
			Values: map[string]any{"coord_ra_err": 0.0, "coord_dec_err": 0.0, "g_flux": 355.4},
		},
	})

	mock.ExpectQuery(`SELECT layout, records FROM shards WHERE key = \$1`).
		WithArgs("cal_ref_cat/2048").
		WillReturnRows(sqlmock.NewRows([]string{"layout", "records"}).AddRow(layoutData, recordData))

	shard, err := queryGetShard(context.Background(), db, "cal_ref_cat/2048")
	if err != nil {
		t.Fatalf("queryGetShard: %v", err)
	}
	if shard.Len() != 1 {
		t.Fatalf("Len = %d, want 1", shard.Len())
	}
	if shard.Records[0].ID != 1 || shard.Records[0].RA != 10.5 {
		t.Errorf("record = %+v", shard.Records[0])
	}
	if !shard.Layout.Has("g_flux") {
		t.Errorf("layout lost fields: %v", shard.Layout.Fields())
	}
}

func TestGetShardNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT layout, records FROM shards WHERE key = \$1`).
		WithArgs("cal_ref_cat/9999").
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetShard(context.Background(), db, "cal_ref_cat/9999")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPutShard(t *testing.T) {
	db, mock := newMockDB(t)
	layout := testLayout(t)

	shard := catalog.NewShard(layout)
	shard.Append(catalog.Record{
		ID: 1, Parent: catalog.NoParent, RA: 10.5, Dec: -3.25,
		Values: map[string]any{"coord_ra_err": 0.0, "coord_dec_err": 0.0, "g_flux": 355.4},
	})

	mock.ExpectExec(`INSERT INTO shards`).
		WithArgs("cal_ref_cat/2048", sqlmock.AnyArg(), sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := queryPutShard(context.Background(), db, "cal_ref_cat/2048", shard); err != nil {
		t.Fatalf("queryPutShard: %v", err)
	}
}

func TestPutEmptyShardEncodesEmptyArray(t *testing.T) {
	db, mock := newMockDB(t)
	layout := testLayout(t)

	// The master schema entry is a zero-row shard; its records column must
	// be a JSON array, not null.
	mock.ExpectExec(`INSERT INTO shards`).
		WithArgs("cal_ref_cat/master_schema", sqlmock.AnyArg(), []byte("[]"), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := queryPutShard(context.Background(), db, "cal_ref_cat/master_schema", catalog.NewShard(layout))
	if err != nil {
		t.Fatalf("queryPutShard: %v", err)
	}
}

func TestBlobRoundTrip(t *testing.T) {
	db, mock := newMockDB(t)
	data := []byte("run_id = \"run-x\"\n")

	mock.ExpectExec(`INSERT INTO blobs`).
		WithArgs("cal_ref_cat/master_config", data).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT data FROM blobs WHERE key = \$1`).
		WithArgs("cal_ref_cat/master_config").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(data))

	ctx := context.Background()
	if err := queryPutBlob(ctx, db, "cal_ref_cat/master_config", data); err != nil {
		t.Fatalf("queryPutBlob: %v", err)
	}
	got, err := queryGetBlob(ctx, db, "cal_ref_cat/master_config")
	if err != nil {
		t.Fatalf("queryGetBlob: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("blob = %q, want %q", got, data)
	}
}

func TestGetBlobNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT data FROM blobs WHERE key = \$1`).
		WithArgs("cal_ref_cat/master_config").
		WillReturnError(sql.ErrNoRows)

	_, err := queryGetBlob(context.Background(), db, "cal_ref_cat/master_config")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreErrorWrapping(t *testing.T) {
	db, mock := newMockDB(t)
	s := &PostgresStore{db: db}

	mock.ExpectQuery(`SELECT layout, records FROM shards WHERE key = \$1`).
		WithArgs("cal_ref_cat/1").
		WillReturnError(sql.ErrConnDone)

	_, err := s.Get(context.Background(), "cal_ref_cat/1")
	var se *store.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StoreError", err)
	}
	if se.Op != "get" || se.Key != "cal_ref_cat/1" {
		t.Errorf("StoreError = %+v", se)
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Error("StoreError should wrap the cause")
	}
}
