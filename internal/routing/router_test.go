package routing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unfoldingWord/tx-enqueue-job/internal/config"
	"github.com/unfoldingWord/tx-enqueue-job/internal/entities"
	"github.com/unfoldingWord/tx-enqueue-job/internal/routing"
)

func testTable(prefix string) *routing.Table {
	return routing.NewTable(config.RoutingConfig{
		HTMLQueue:     "tx_job_handler",
		OBSPDFQueue:   "tx_obs_pdf_job_handler",
		OtherPDFQueue: "tx_other_pdf_job_handler",
		OBSSubjects:   []string{"Open_Bible_Stories", "OBS_Translation_Notes", "obs"},
	}, prefix, config.CDNConfig{
		JobBase: "https://cdn.door43.org/tx/job/",
		PDFBase: "https://cdn.door43.org/u/",
	})
}

func record(jobID string, fields map[string]any) entities.JobRecord {
	return entities.JobRecord{JobID: jobID, Fields: fields}
}

func TestRoute_QueueSelection(t *testing.T) {
	table := testTable("")

	cases := []struct {
		name         string
		outputFormat string
		subject      string
		wantQueue    string
	}{
		{"html", "html", "Bible", "tx_job_handler"},
		{"html ignores subject", "html", "obs", "tx_job_handler"},
		{"pdf obs", "pdf", "obs", "tx_obs_pdf_job_handler"},
		{"pdf obs notes", "pdf", "OBS_Translation_Notes", "tx_obs_pdf_job_handler"},
		{"pdf bible", "pdf", "Bible", "tx_other_pdf_job_handler"},
		{"pdf unknown subject", "pdf", "Whatever_New", "tx_other_pdf_job_handler"},
		{"unenumerated format goes to general queue", "docx", "Bible", "tx_job_handler"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := record("j1", map[string]any{
				"output_format": tc.outputFormat,
				"resource_type": tc.subject,
			})
			table.Route(&rec)
			assert.Equal(t, tc.wantQueue, rec.QueueName)

			// Same inputs always yield the same queue.
			again := record("j1", map[string]any{
				"output_format": tc.outputFormat,
				"resource_type": tc.subject,
			})
			table.Route(&again)
			assert.Equal(t, rec.QueueName, again.QueueName)
		})
	}
}

func TestRoute_DeploymentPrefix(t *testing.T) {
	table := testTable("dev-")

	rec := record("j1", map[string]any{"output_format": "html"})
	table.Route(&rec)
	assert.Equal(t, "dev-tx_job_handler", rec.QueueName)

	rec = record("j1", map[string]any{"output_format": "pdf", "resource_type": "obs"})
	table.Route(&rec)
	assert.Equal(t, "dev-tx_obs_pdf_job_handler", rec.QueueName)
}

func TestRoute_HTMLOutputURL(t *testing.T) {
	table := testTable("")

	rec := record("abc123", map[string]any{"output_format": "html"})
	table.Route(&rec)
	assert.Equal(t, "https://cdn.door43.org/tx/job/abc123.zip", rec.Output)
}

func TestRoute_PDFOutputFromIdentifier(t *testing.T) {
	table := testTable("")

	rec := record("j1", map[string]any{
		"output_format": "pdf",
		"resource_type": "Bible",
		"identifier":    "unfoldingWord--en_ult--v40",
	})
	table.Route(&rec)
	assert.Equal(t,
		"https://cdn.door43.org/u/unfoldingWord/en_ult/v40/unfoldingWord--en_ult--v40.pdf",
		rec.Output)

	rec = record("j1", map[string]any{
		"output_format": "pdf",
		"resource_type": "Bible",
		"identifier":    "en_obs--v4",
	})
	table.Route(&rec)
	assert.Equal(t, "https://cdn.door43.org/u/en_obs/v4/en_obs--v4.pdf", rec.Output)
}

func TestRoute_PDFOutputFromSource(t *testing.T) {
	table := testTable("")

	rec := record("j1", map[string]any{
		"output_format": "pdf",
		"resource_type": "obs",
		"source":        "https://host/owner/repo/archive/v1.zip",
	})
	table.Route(&rec)
	assert.Equal(t, "tx_obs_pdf_job_handler", rec.QueueName)
	assert.Equal(t, "https://cdn.door43.org/u/owner/repo/v1/owner--repo--v1.pdf", rec.Output)
}

func TestRoute_PDFOutputUnknown(t *testing.T) {
	table := testTable("")

	cases := []map[string]any{
		{"output_format": "pdf", "resource_type": "Bible"},
		{"output_format": "pdf", "resource_type": "Bible", "source": "https://host/not/an/archive"},
		{"output_format": "pdf", "resource_type": "Bible", "identifier": "has/slash--v1"},
		{"output_format": "pdf", "resource_type": "Bible", "identifier": "one--two--three--four"},
	}
	for _, fields := range cases {
		rec := record("j1", fields)
		table.Route(&rec)
		assert.Equal(t, routing.OutputUnknown, rec.Output)
		assert.NotEmpty(t, rec.QueueName, "routing never depends on the prediction")
	}
}

func TestRoute_IdentifierHeuristicWinsOverSource(t *testing.T) {
	table := testTable("")

	rec := record("j1", map[string]any{
		"output_format": "pdf",
		"resource_type": "Bible",
		"identifier":    "a--b--c",
		"source":        "https://host/owner/repo/archive/v1.zip",
	})
	table.Route(&rec)
	assert.Equal(t, "https://cdn.door43.org/u/a/b/c/a--b--c.pdf", rec.Output)
}
