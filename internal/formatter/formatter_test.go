package formatter

import (
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mandolin/internal/models"
	tu "github.com/desertthunder/mandolin/internal/testing"
)

func sampleReport() *models.FetchReport {
	r := &models.FetchReport{ID: "run-1"}
	r.StartList("Road_Trip_1")
	r.Record(models.TrackReference{Link: "https://open.spotify.com/track/a", Query: "Band - One"}, nil)
	r.Record(models.TrackReference{Query: "Band - Two"}, errors.New("fetch failed: exit status 1"))
	r.StartList("Other_2")
	r.Record(models.TrackReference{Query: "Band, Guest - Three"}, nil)
	return r
}

func TestText(t *testing.T) {
	t.Run("SummaryText", func(t *testing.T) {
		out := string(SummaryText(&models.CollectionSummary{
			Name:       "Road Trip",
			TrackCount: 1234,
			Link:       "https://open.spotify.com/playlist/x",
			DownloadID: "eNqrVkrLzEst",
		}))

		for _, want := range []string{"Road Trip", "1,234 tracks", "https://open.spotify.com/playlist/x", "eNqrVkrLzEst"} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("SummaryText Singular", func(t *testing.T) {
		out := string(SummaryText(&models.CollectionSummary{Name: "One", TrackCount: 1}))
		if !strings.Contains(out, "1 track\n") {
			t.Errorf("expected singular track count, got:\n%s", out)
		}
		if strings.Contains(out, "Link:") {
			t.Errorf("empty link should be omitted, got:\n%s", out)
		}
	})

	t.Run("BatchText", func(t *testing.T) {
		out := string(BatchText(&models.PreparedBatch{
			Owner: "roadie",
			Kind:  models.KindUser,
			Collections: []models.CollectionSummary{
				{Name: "A", TrackCount: 2, DownloadID: "id-a"},
				{Name: "B", TrackCount: 3, DownloadID: "id-b"},
			},
			DownloadID: "id-all",
		}))

		for _, want := range []string{"roadie (user)", "2 collections, 5 tracks", "1. A [2 tracks]", "2. B [3 tracks]", "id-a", "id-b", "id-all"} {
			if !strings.Contains(out, want) {
				t.Errorf("batch missing %q, got:\n%s", want, out)
			}
		}
		if strings.Index(out, "1. A") > strings.Index(out, "2. B") {
			t.Errorf("collections out of order:\n%s", out)
		}
	})

	t.Run("BatchText Empty", func(t *testing.T) {
		out := string(BatchText(&models.PreparedBatch{Owner: "nobody", Kind: models.KindUser, DownloadID: "id"}))
		if !strings.Contains(out, "No collections found") {
			t.Errorf("expected empty notice, got:\n%s", out)
		}
	})

	t.Run("DescriptorText", func(t *testing.T) {
		d := models.NewJobDescriptor("A_1", "B_2", "C_3")
		out := string(DescriptorText(d, []string{"B_2"}))

		if !strings.Contains(out, "3 track lists") {
			t.Errorf("missing count, got:\n%s", out)
		}
		if !strings.Contains(out, "✗ 2. B_2") || !strings.Contains(out, "✓ 1. A_1") {
			t.Errorf("unexpected marks:\n%s", out)
		}
		if !strings.Contains(out, "1 missing") {
			t.Errorf("missing tally absent:\n%s", out)
		}
	})

	t.Run("ReportText", func(t *testing.T) {
		out := string(ReportText(sampleReport()))

		for _, want := range []string{"Download run-1", "Lists:     2", "Tracks:    3", "Succeeded: 2", "Failed:    1", "✗ Band - Two: fetch failed: exit status 1"} {
			if !strings.Contains(out, want) {
				t.Errorf("report missing %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("ReportText No Failures", func(t *testing.T) {
		r := &models.FetchReport{ID: "clean"}
		r.Record(models.TrackReference{Query: "x"}, nil)

		if out := string(ReportText(r)); strings.Contains(out, "Failures:") {
			t.Errorf("unexpected failures section:\n%s", out)
		}
	})
}

func TestReportCSV(t *testing.T) {
	t.Run("ReportToCSV", func(t *testing.T) {
		data, err := ReportToCSV(sampleReport())
		if err != nil {
			t.Fatalf("ReportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}

		if len(records) != 4 {
			t.Fatalf("expected header + 3 rows, got %d", len(records))
		}
		if strings.Join(records[0], ",") != "List,Link,Query,Status,Error" {
			t.Errorf("unexpected headers %v", records[0])
		}
		if records[2][3] != "failed" || records[2][4] == "" {
			t.Errorf("expected failed row with error, got %v", records[2])
		}
		if records[3][0] != "Other_2" || records[3][2] != "Band, Guest - Three" {
			t.Errorf("unexpected last row %v", records[3])
		}
	})

	t.Run("WriteCSVReport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "reports", "run-1")

		path, err := WriteCSVReport(sampleReport(), base)
		if err != nil {
			t.Fatalf("WriteCSVReport failed: %v", err)
		}
		if path != base+".csv" {
			t.Errorf("expected .csv extension, got %s", path)
		}

		tu.AssertFileExists(t, path)
		if content := tu.MustReadFile(t, path); !strings.HasPrefix(content, "List,Link,Query,Status,Error") {
			t.Errorf("unexpected file content %q", content)
		}
	})

	t.Run("WriteCSVReport Keeps Extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")

		got, err := WriteCSVReport(sampleReport(), path)
		if err != nil {
			t.Fatalf("WriteCSVReport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
	})
}
