package routing

import (
	"fmt"
	"strings"

	"github.com/unfoldingWord/tx-enqueue-job/internal/config"
	"github.com/unfoldingWord/tx-enqueue-job/internal/entities"
	"github.com/unfoldingWord/tx-enqueue-job/internal/schema"
)

// OutputUnknown is the sentinel for an output URL we could not predict.
// Prediction is advisory; routing never depends on it.
const OutputUnknown = "UNKNOWN"

// Table selects exactly one destination queue per record, deterministically
// from its output format and resource subject, and predicts where the output
// artifact will land. Pure computation over configuration loaded at startup.
type Table struct {
	htmlQueue     string
	obsPDFQueue   string
	otherPDFQueue string
	obsSubjects   map[string]struct{}
	jobCDNBase    string
	pdfCDNBase    string
}

func NewTable(rcfg config.RoutingConfig, prefix string, cdn config.CDNConfig) *Table {
	t := &Table{
		htmlQueue:     prefix + rcfg.HTMLQueue,
		obsPDFQueue:   prefix + rcfg.OBSPDFQueue,
		otherPDFQueue: prefix + rcfg.OtherPDFQueue,
		obsSubjects:   make(map[string]struct{}, len(rcfg.OBSSubjects)),
		jobCDNBase:    cdn.JobBase,
		pdfCDNBase:    cdn.PDFBase,
	}
	for _, s := range rcfg.OBSSubjects {
		t.obsSubjects[s] = struct{}{}
	}
	return t
}

// Route fills in the record's queue name and predicted output URL.
func (t *Table) Route(rec *entities.JobRecord) {
	outputFormat, _ := rec.Fields["output_format"].(string)

	if strings.ToLower(outputFormat) != "pdf" {
		// html and anything the enumerations merely warned about go to the
		// general converter queue.
		rec.QueueName = t.htmlQueue
		rec.Output = t.jobCDNBase + rec.JobID + ".zip"
		return
	}

	if _, ok := t.obsSubjects[schema.SubjectOf(rec.Fields)]; ok {
		rec.QueueName = t.obsPDFQueue
	} else {
		rec.QueueName = t.otherPDFQueue
	}
	rec.Output = t.predictPDFOutput(rec)
}

// predictPDFOutput guesses the published PDF location, best effort. The
// identifier heuristic runs first, then the source-archive shape.
func (t *Table) predictPDFOutput(rec *entities.JobRecord) string {
	ident, _ := rec.Fields["identifier"].(string)
	if ident != "" && !strings.Contains(ident, "/") {
		parts := strings.Split(ident, "--")
		switch len(parts) {
		case 2: // repo--ref
			return fmt.Sprintf("%s%s/%s/%s.pdf", t.pdfCDNBase, parts[0], parts[1], ident)
		case 3: // owner--repo--branch
			return fmt.Sprintf("%s%s/%s/%s/%s--%s--%s.pdf",
				t.pdfCDNBase, parts[0], parts[1], parts[2], parts[0], parts[1], parts[2])
		}
	}

	// scheme://host/owner/repo/archive/ref.zip
	if src, _ := rec.Fields["source"].(string); src != "" {
		segs := strings.Split(src, "/")
		if len(segs) == 7 && segs[5] == "archive" && strings.HasSuffix(segs[6], ".zip") {
			owner, repo := segs[3], segs[4]
			ref := strings.TrimSuffix(segs[6], ".zip")
			return fmt.Sprintf("%s%s/%s/%s/%s--%s--%s.pdf",
				t.pdfCDNBase, owner, repo, ref, owner, repo, ref)
		}
	}

	return OutputUnknown
}
