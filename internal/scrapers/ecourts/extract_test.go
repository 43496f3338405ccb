package ecourts_test

import (
	"casestatus-backend/internal/components/telemetry"
	"casestatus-backend/internal/scrapers/ecourts"
	"casestatus-backend/internal/scrapers/ecourts/ecourtstest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newExtractor() ecourts.Extractor {
	return ecourts.NewExtractor(ecourts.DefaultSelectors(), telemetry.NewRecorderAPI())
}

func TestExtract(t *testing.T) {
	html := ecourtstest.ResultPage(
		"Ramesh Kumar",
		"State of Haryana",
		"10-02-2023",
		"22-11-2024",
		[2]string{"15-01-2023", "/orders/first.pdf"},
		[2]string{"01-03-2024", "https://files.court.example/orders/second.pdf"},
	)

	result, err := newExtractor().Extract(html, "https://court.example/case-status/result?id=4")
	require.NoError(t, err)

	expected := ecourts.CaseResult{
		PartiesNames:    "Petitioner: Ramesh Kumar, Respondent: State of Haryana",
		FilingDate:      "10-02-2023",
		NextHearingDate: "22-11-2024",
		DocumentLinks: []ecourts.DocumentLink{
			{Date: "01-03-2024", Url: "https://files.court.example/orders/second.pdf"},
			{Date: "15-01-2023", Url: "https://court.example/orders/first.pdf"},
		},
	}
	if diff := cmp.Diff(expected, result); diff != "" {
		t.Fatal("unexpected result (-want +got)\n", diff)
	}
}

func TestExtractNotFound(t *testing.T) {
	for _, html := range []string{
		ecourtstest.NotFoundPage,
		`<html><body><p>No case found</p></body></html>`,
	} {
		_, err := newExtractor().Extract(html, "https://court.example")
		require.ErrorIs(t, err, ecourts.ErrNotFound)
	}
}

func TestExtractMissingLabel(t *testing.T) {
	html := `<html><body><table>
		<tr><td>Petitioner Name</td><td>A</td></tr>
		<tr><td>Respondent Name</td><td>B</td></tr>
		<tr><td>Filing Date</td><td>01-01-2020</td></tr>
	</table></body></html>`

	_, err := newExtractor().Extract(html, "https://court.example")
	var extractionErr *ecourts.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	require.Equal(t, "Next Hearing Date", extractionErr.Field)
	require.NotErrorIs(t, err, ecourts.ErrNotFound)
}

func TestExtractLabelMatching(t *testing.T) {
	html := `<html><body><table>
		<tr><td><b>Case</b> petitioner  name :</td><td class="x"> A </td></tr>
		<tr><td>Respondent
			Name</td><td>B <span>(through counsel)</span></td></tr>
		<tr><td>Filing Date</td><th>ignored</th><td>01-01-2020</td></tr>
		<tr><td>Next Hearing Date</td><td></td></tr>
	</table></body></html>`

	result, err := newExtractor().Extract(html, "")
	require.NoError(t, err)
	require.Equal(t, "Petitioner: A, Respondent: B (through counsel)", result.PartiesNames)
	require.Equal(t, "01-01-2020", result.FilingDate)
	require.Equal(t, "", result.NextHearingDate)
	require.Empty(t, result.DocumentLinks)
}

func TestExtractDocumentLinks(t *testing.T) {
	html := ecourtstest.ResultPage(
		"A", "B", "01-01-2020", "01-01-2025",
		[2]string{"", "orders/undated.pdf"},
		[2]string{"05-05-2021", "orders/a.pdf"},
		[2]string{"see registry", "orders/garbled.pdf"},
		[2]string{"07-07-2022", "orders/b.pdf"},
		[2]string{"06-06-2021", "orders/c.docx"},
		[2]string{"Dated 01-01-2020", "orders/d.pdf"},
	)

	result, err := newExtractor().Extract(html, "https://court.example/case-status/")
	require.NoError(t, err)

	expected := []ecourts.DocumentLink{
		{Date: "07-07-2022", Url: "https://court.example/case-status/orders/b.pdf"},
		{Date: "05-05-2021", Url: "https://court.example/case-status/orders/a.pdf"},
		{Date: ecourts.UnknownDate, Url: "https://court.example/case-status/orders/undated.pdf"},
	}
	if diff := cmp.Diff(expected, result.DocumentLinks); diff != "" {
		t.Fatal("unexpected document links (-want +got)\n", diff)
	}
}

func TestExtractReportsOrderLinkCount(t *testing.T) {
	html := ecourtstest.ResultPage(
		"A", "B", "01-01-2020", "01-01-2025",
		[2]string{"01-01-2021", "orders/a.pdf"},
		[2]string{"02-01-2021", "orders/b.pdf"},
		[2]string{"03-01-2021", "orders/c.pdf"},
		[2]string{"04-01-2021", "orders/d.pdf"},
		[2]string{"05-01-2021", "orders/e.docx"},
	)

	tel := telemetry.NewRecorderAPI()
	result, err := ecourts.NewExtractor(ecourts.DefaultSelectors(), tel).Extract(html, "https://court.example/")
	require.NoError(t, err)
	require.Len(t, result.DocumentLinks, ecourts.MaxDocumentLinks)

	counts := tel.Find(telemetry.REPORT_COUNT, "extractor.order-links")
	require.Len(t, counts, 1)
	require.Equal(t, int64(4), counts[0].Count)
}

func TestTopDocumentLinks(t *testing.T) {
	links := []ecourts.DocumentLink{
		{Date: ecourts.UnknownDate, Url: "u1"},
		{Date: "01-01-2020", Url: "a"},
		{Date: "garbage", Url: "u2"},
		{Date: "01-01-2020", Url: "b"},
		{Date: "31-12-2019", Url: "c"},
	}

	require.Equal(t, []ecourts.DocumentLink{
		{Date: "01-01-2020", Url: "a"},
		{Date: "01-01-2020", Url: "b"},
		{Date: "31-12-2019", Url: "c"},
		{Date: ecourts.UnknownDate, Url: "u1"},
		{Date: "garbage", Url: "u2"},
	}, ecourts.TopDocumentLinks(links, 10))

	require.Len(t, ecourts.TopDocumentLinks(links, 3), 3)
	require.Empty(t, ecourts.TopDocumentLinks(nil, 3))
}

func TestParseOrderDate(t *testing.T) {
	parsed, ok := ecourts.ParseOrderDate("01-03-2024")
	require.True(t, ok)
	require.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), parsed)

	_, ok = ecourts.ParseOrderDate("2024-03-01")
	require.False(t, ok)

	_, ok = ecourts.ParseOrderDate("31-02-2024")
	require.False(t, ok)

	_, ok = ecourts.ParseOrderDate(ecourts.UnknownDate)
	require.False(t, ok)

	parsed, ok = ecourts.ParseOrderDate(" 15-01-2019\n")
	require.True(t, ok)
	require.Equal(t, time.Date(2019, time.January, 15, 0, 0, 0, 0, time.UTC), parsed)

	for _, text := range []string{"Dated 01-01-2020", "01-01-2020 (final)", "101-01-2020"} {
		_, ok = ecourts.ParseOrderDate(text)
		require.False(t, ok, text)
	}
}

func TestTopDocumentLinksPrefixedDate(t *testing.T) {
	links := []ecourts.DocumentLink{
		{Date: ecourts.UnknownDate, Url: "unknown"},
		{Date: "Dated 01-01-2020", Url: "prefixed"},
		{Date: "15-01-2019", Url: "plain"},
	}

	require.Equal(t, []ecourts.DocumentLink{
		{Date: "15-01-2019", Url: "plain"},
		{Date: ecourts.UnknownDate, Url: "unknown"},
		{Date: "Dated 01-01-2020", Url: "prefixed"},
	}, ecourts.TopDocumentLinks(links, 3))
}
