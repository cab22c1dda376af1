package ocr

import "strings"

// MergePages combines fragments from multiple recognition passes over the
// same image. A fragment is dropped as a duplicate when its text exactly
// matches an already kept fragment, or when one text contains the other and
// both are longer than three runes; the higher-confidence fragment wins.
func MergePages(pages ...*Page) *Page {
	merged := &Page{Engine: "merged"}
	if len(pages) == 1 {
		return pages[0]
	}

	for _, page := range pages {
		if page == nil {
			continue
		}
		if merged.Engine == "merged" && len(merged.Records) == 0 {
			merged.Engine = page.Engine
		} else if page.Engine != merged.Engine {
			merged.Engine = "merged"
		}
		for _, rec := range page.Records {
			merged.Records = addDeduped(merged.Records, rec)
		}
	}

	return merged
}

func addDeduped(records []TextRecord, rec TextRecord) []TextRecord {
	for i, kept := range records {
		if !isDuplicate(kept.Text, rec.Text) {
			continue
		}
		// Prefer the longer reading, carry the best confidence
		if len(rec.Text) > len(kept.Text) {
			if kept.Score > rec.Score {
				rec.Score = kept.Score
			}
			records[i] = rec
		} else if rec.Score > kept.Score {
			records[i].Score = rec.Score
		}
		return records
	}
	return append(records, rec)
}

func isDuplicate(a, b string) bool {
	if a == b {
		return true
	}
	if len([]rune(a)) <= 3 || len([]rune(b)) <= 3 {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
