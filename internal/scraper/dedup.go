package scraper

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/Hemanthmaddila/AI-agent/internal/domain/job"
)

// Content fingerprints only kick in for descriptions long enough to be
// distinctive; short blurbs collide across unrelated postings.
const (
	contentFingerprintLen    = 200
	contentFingerprintMinLen = 100
)

// Deduplicator merges postings from multiple sources into a canonical set.
// Three signatures are computed per posting: a normalized URL, a hash of
// title+company, and a fingerprint of the description head. Matching any one
// of them makes two postings duplicates.
type Deduplicator struct{}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Merge processes postings in the given (stable) order, so merge outcomes
// are reproducible. The survivor of a merge keeps the longer description
// and absorbs any optional fields it was missing. Running Merge over its own
// output is idempotent.
func (d *Deduplicator) Merge(postings []job.Posting) ([]job.Posting, int) {
	if len(postings) == 0 {
		return nil, 0
	}

	accepted := make([]job.Posting, 0, len(postings))
	alive := make([]bool, 0, len(postings))
	sigLists := make([][]string, 0, len(postings))
	index := make(map[string]int, len(postings)*3)
	removed := 0

	// settle indexes entry i's current signatures. A merge can hand the
	// survivor a signature another live entry already holds (the candidate's
	// description fingerprint, say, matching a posting accepted earlier);
	// those two entries are transitive duplicates, so the later one folds
	// into the earlier one and settling restarts on the survivor.
	settle := func(i int) {
		for {
			conflict := -1
			for _, sig := range signaturesOf(accepted[i]) {
				j, ok := index[sig]
				if !ok {
					index[sig] = i
					sigLists[i] = append(sigLists[i], sig)
					continue
				}
				if j != i {
					conflict = j
					break
				}
			}
			if conflict < 0 {
				return
			}
			keep, lose := i, conflict
			if conflict < i {
				keep, lose = conflict, i
			}
			accepted[keep] = mergePostings(accepted[keep], accepted[lose])
			alive[lose] = false
			removed++
			for _, sig := range sigLists[lose] {
				index[sig] = keep
			}
			sigLists[keep] = append(sigLists[keep], sigLists[lose]...)
			sigLists[lose] = nil
			i = keep
		}
	}

	for _, p := range postings {
		matched := -1
		for _, sig := range signaturesOf(p) {
			if i, ok := index[sig]; ok {
				matched = i
				break
			}
		}

		if matched < 0 {
			accepted = append(accepted, p)
			alive = append(alive, true)
			sigLists = append(sigLists, nil)
			settle(len(accepted) - 1)
			continue
		}

		removed++
		accepted[matched] = mergePostings(accepted[matched], p)
		settle(matched)
	}

	out := make([]job.Posting, 0, len(accepted))
	for i, p := range accepted {
		if alive[i] {
			out = append(out, p)
		}
	}
	return out, removed
}

// mergePostings folds the duplicate candidate into the surviving posting.
func mergePostings(into job.Posting, from job.Posting) job.Posting {
	if len(strings.TrimSpace(from.Description)) > len(strings.TrimSpace(into.Description)) {
		into.Description = from.Description
	}
	if into.SalaryRange == "" {
		into.SalaryRange = from.SalaryRange
	}
	if into.EquityRange == "" {
		into.EquityRange = from.EquityRange
	}
	if into.FundingStage == "" {
		into.FundingStage = from.FundingStage
	}
	if into.Location == "" {
		into.Location = from.Location
	}
	if into.PostedAt == nil {
		into.PostedAt = from.PostedAt
	}
	return into
}

// signaturesOf returns the posting's duplicate-detection keys. Synthetic
// postings live in their own signature namespace: placeholder data must
// never merge with (or absorb) a real posting.
func signaturesOf(p job.Posting) []string {
	prefix := ""
	if p.IsSynthetic {
		prefix = "synthetic|"
	}

	sigs := make([]string, 0, 3)

	if u := normalizeSignatureURL(p.URL); u != "" {
		sigs = append(sigs, prefix+"url:"+u)
	}

	title := strings.ToLower(strings.TrimSpace(p.Title))
	company := strings.ToLower(strings.TrimSpace(p.Company))
	if title != "" && company != "" {
		h := sha1.Sum([]byte(title + "|" + company))
		sigs = append(sigs, prefix+"title_company:"+hex.EncodeToString(h[:]))
	}

	desc := cleanText(strings.ToLower(p.Description))
	if len(desc) >= contentFingerprintMinLen {
		if len(desc) > contentFingerprintLen {
			desc = desc[:contentFingerprintLen]
		}
		h := sha1.Sum([]byte(desc))
		sigs = append(sigs, prefix+"content:"+hex.EncodeToString(h[:]))
	}

	return sigs
}

// normalizeSignatureURL strips query parameters, fragments and case so
// tracking-parameter variants of the same posting compare equal.
func normalizeSignatureURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	return strings.ToLower(u.Host + strings.TrimRight(u.Path, "/"))
}
