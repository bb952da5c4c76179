package storeService

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func expectRecorded(mock sqlmock.Sqlmock, name string, recorded bool) {
	count := 0
	if recorded {
		count = 1
	}
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `migrations` WHERE name = \\?").
		WithArgs(name).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
}

func TestRunDataMigrations(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr bool
	}{
		{
			name: "first run applies and records every migration",
			setup: func(mock sqlmock.Sqlmock) {
				expectRecorded(mock, "backfill_tip_league", false)
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `tips` SET `league`=\\?.* WHERE league = \\?").
					WillReturnResult(sqlmock.NewResult(0, 3))
				mock.ExpectExec("INSERT INTO `migrations`").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()

				expectRecorded(mock, "backfill_tip_source", false)
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `tips` SET `source`=\\?.* WHERE source = \\?").
					WithArgs("api-football", sqlmock.AnyArg(), "").
					WillReturnResult(sqlmock.NewResult(0, 12))
				mock.ExpectExec("INSERT INTO `migrations`").
					WillReturnResult(sqlmock.NewResult(2, 1))
				mock.ExpectCommit()

				expectRecorded(mock, "rebuild_tip_league_match_index", false)
				mock.ExpectBegin()
				mock.ExpectExec("DROP INDEX `tip_league_match` ON `tips`").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("CREATE UNIQUE INDEX `tip_league_match` ON `tips`\\(`league`,`source`,`match_id`\\)").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("INSERT INTO `migrations`").
					WillReturnResult(sqlmock.NewResult(3, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "recorded migrations are skipped",
			setup: func(mock sqlmock.Sqlmock) {
				expectRecorded(mock, "backfill_tip_league", true)
				expectRecorded(mock, "backfill_tip_source", true)
				expectRecorded(mock, "rebuild_tip_league_match_index", true)
			},
		},
		{
			name: "failed backfill rolls back and stops",
			setup: func(mock sqlmock.Sqlmock) {
				expectRecorded(mock, "backfill_tip_league", false)
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `tips`").WillReturnError(errors.New("lock wait timeout"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.setup(mock)

			err := RunDataMigrations(context.Background(), db, "serie-a", "api-football", nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("Unmet expectations: %v", err)
			}
		})
	}
}
