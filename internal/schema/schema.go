package schema

// FieldSchema declares which payload keys matter. Compulsory fields must be
// present and non-empty; anything outside Compulsory and Optional is only
// worth a warning. Order of Compulsory is the order failures are reported in.
type FieldSchema struct {
	Compulsory      []string
	Optional        []string
	OptionSubfields []string
}

func (s FieldSchema) Recognized(name string) bool {
	for _, f := range s.Compulsory {
		if f == name {
			return true
		}
	}
	for _, f := range s.Optional {
		if f == name {
			return true
		}
	}
	return false
}

func (s FieldSchema) RecognizedOption(name string) bool {
	for _, f := range s.OptionSubfields {
		if f == name {
			return true
		}
	}
	return false
}

// Default is the field contract for conversion-job payloads.
func Default() FieldSchema {
	return FieldSchema{
		Compulsory: []string{"user_token", "resource_type", "input_format", "output_format", "source"},
		Optional: []string{
			"job_id", "identifier", "callback", "options",
			"resource_subject", "door43_webhook_received_at",
		},
		OptionSubfields: []string{
			"columns", "css", "language", "line_spacing",
			"page_margins", "page_size", "toc_levels",
		},
	}
}

// Enumerations are advisory known-value sets. Values outside them are logged
// as warnings, never rejected -- the downstream job handler has the
// authoritative lists.
type Enumerations struct {
	ResourceSubjects []string
	InputFormats     []string
	OutputFormats    []string
}

func KnownValues() Enumerations {
	return Enumerations{
		ResourceSubjects: []string{
			"Bible", "Aligned_Bible", "Greek_New_Testament", "Hebrew_Old_Testament",
			"Translation_Academy", "Translation_Notes", "Translation_Questions", "Translation_Words",
			"Open_Bible_Stories", "OBS_Translation_Notes", "OBS_Translation_Questions",
			"bible", "book", "obs", "ta", "tn", "tq", "tw",
		},
		InputFormats:  []string{"md", "usfm", "txt", "tsv"},
		OutputFormats: []string{"docx", "html", "pdf"},
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
