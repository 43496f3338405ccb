package attemptstore

import (
	"casestatus-backend/internal/components/telemetry"
	"casestatus-backend/internal/db"
	"casestatus-backend/internal/scrapers/ecourts"
	configlibsql "casestatus-backend/lib/configutil/libsql"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var query = ecourts.CaseQuery{
	CaseType:   "CIVIL APPEAL",
	CaseNumber: "123",
	FilingYear: "2023",
}

var result = ecourts.CaseResult{
	PartiesNames:    "Petitioner: A, Respondent: B",
	FilingDate:      "10-02-2023",
	NextHearingDate: "22-11-2024",
	DocumentLinks: []ecourts.DocumentLink{
		{Date: "01-03-2024", Url: "https://court.example/orders/2.pdf"},
		{Date: "15-01-2023", Url: "https://court.example/orders/1.pdf"},
	},
}

func openMemoryStore(t testing.TB) (Store, *telemetry.RecorderAPI) {
	database, err := configlibsql.Struct{File: ":memory:"}.OpenDB(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	tel := telemetry.NewRecorderAPI()
	return NewStore(database, tel), tel
}

func at(minute int) time.Time {
	return time.Date(2024, time.March, 5, 10, minute, 0, 0, time.UTC)
}

func TestRecordValidate(t *testing.T) {
	require.NoError(t, Succeeded(at(0), query, result, "<html/>").Validate())
	require.NoError(t, Failed(at(0), query, "No case found for the given details.", "").Validate())

	require.Error(t, Failed(at(0), query, "", "").Validate())
	require.Error(t, Record{Timestamp: at(0), Status: db.STATUS_SUCCESS}.Validate())
	require.Error(t, Record{Status: db.STATUS_FAILED, ErrorMessage: "x"}.Validate())

	invalid := Succeeded(at(0), query, result, "")
	invalid.ErrorMessage = "oops"
	require.Error(t, invalid.Validate())

	invalid = Failed(at(0), query, "oops", "")
	invalid.Result = &result
	require.Error(t, invalid.Validate())
}

func TestAppendAndRecent(t *testing.T) {
	store, tel := openMemoryStore(t)
	ctx := context.Background()

	successId, err := store.Append(ctx, Succeeded(at(1), query, result, "<html>found</html>"))
	require.NoError(t, err)
	failedId, err := store.Append(ctx, Failed(at(2), query, "No case found for the given details.", "<html>none</html>"))
	require.NoError(t, err)
	require.Greater(t, failedId, successId)

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	expected := []Record{
		{
			ID:              failedId,
			Timestamp:       at(2),
			Query:           query,
			Status:          db.STATUS_FAILED,
			ErrorMessage:    "No case found for the given details.",
			RawResponseHtml: "<html>none</html>",
		},
		{
			ID:              successId,
			Timestamp:       at(1),
			Query:           query,
			Status:          db.STATUS_SUCCESS,
			Result:          &result,
			RawResponseHtml: "<html>found</html>",
		},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatal("unexpected records (-want +got)\n", diff)
	}
	require.Empty(t, tel.Find(telemetry.REPORT_WARNING, ""))
}

func TestAppendRejectsInvalidRecord(t *testing.T) {
	store, _ := openMemoryStore(t)
	ctx := context.Background()

	_, err := store.Append(ctx, Failed(at(0), query, "", ""))
	require.Error(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestRecentOrderingAndLimit(t *testing.T) {
	store, _ := openMemoryStore(t)
	ctx := context.Background()

	// inserted out of order, ties on timestamp are broken by insertion order
	minutes := []int{5, 1, 9, 9, 3}
	ids := make([]int64, len(minutes))
	for i, minute := range minutes {
		id, err := store.Append(ctx, Failed(at(minute), query, fmt.Sprintf("failure %d", i), ""))
		require.NoError(t, err)
		ids[i] = id
	}

	records, err := store.Recent(ctx, 3)
	require.NoError(t, err)

	var got []int64
	for _, r := range records {
		got = append(got, r.ID)
	}
	require.Equal(t, []int64{ids[3], ids[2], ids[0]}, got)

	records, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestIdenticalFailuresAreDistinctRows(t *testing.T) {
	store, _ := openMemoryStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.Append(ctx, Failed(at(0), query, "No case found for the given details.", ""))
		require.NoError(t, err)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestLatestSuccess(t *testing.T) {
	store, _ := openMemoryStore(t)
	ctx := context.Background()

	_, found, err := store.LatestSuccess(ctx, query)
	require.NoError(t, err)
	require.False(t, found)

	older := result
	older.NextHearingDate = "01-01-2024"
	_, err = store.Append(ctx, Succeeded(at(1), query, older, ""))
	require.NoError(t, err)
	newestId, err := store.Append(ctx, Succeeded(at(2), query, result, ""))
	require.NoError(t, err)
	_, err = store.Append(ctx, Failed(at(3), query, "could not reach court site", ""))
	require.NoError(t, err)

	other := query
	other.CaseNumber = "999"
	_, err = store.Append(ctx, Succeeded(at(4), other, result, ""))
	require.NoError(t, err)

	record, found, err := store.LatestSuccess(ctx, query)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, newestId, record.ID)
	require.Equal(t, "22-11-2024", record.Result.NextHearingDate)
}

func TestSuccessWithoutLinksKeepsEmptyList(t *testing.T) {
	store, _ := openMemoryStore(t)
	ctx := context.Background()

	noLinks := result
	noLinks.DocumentLinks = nil
	_, err := store.Append(ctx, Succeeded(at(0), query, noLinks, ""))
	require.NoError(t, err)

	records, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Result.DocumentLinks)
	require.Empty(t, records[0].Result.DocumentLinks)
}

func TestConcurrentAppends(t *testing.T) {
	store, _ := openMemoryStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Append(ctx, Failed(at(i), query, fmt.Sprintf("failure %d", i), ""))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, writers, count)
}
