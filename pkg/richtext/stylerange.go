package richtext

// normalizeRuns drops empty runs and merges adjacent mergeable runs. The
// result always holds at least one run.
func normalizeRuns(runs []TextRun) []TextRun {
	out := make([]TextRun, 0, len(runs))
	for _, r := range runs {
		if r.Text == "" && !(r.Kind == KindChoice && len(r.Options) > 0) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].mergeable(r) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		empty := TextRun{}
		if len(runs) > 0 && !runs[0].Atomic() {
			empty = runs[0].withText("")
		}
		out = append(out, empty)
	}
	return out
}

// splitRunsAt cuts runs at rune offset pos. Offsets past the end clamp.
func splitRunsAt(runs []TextRun, pos int) ([]TextRun, []TextRun, error) {
	var left, right []TextRun
	off := 0
	for i, r := range runs {
		n := r.Len()
		switch {
		case off+n <= pos:
			left = append(left, r.Clone())
		case off >= pos:
			right = append(right, cloneRuns(runs[i:])...)
			return left, right, nil
		default:
			a, b, err := SplitRun(r, pos-off)
			if err != nil {
				return nil, nil, err
			}
			left = append(left, a)
			right = append(right, b)
			right = append(right, cloneRuns(runs[i+1:])...)
			return left, right, nil
		}
		off += n
	}
	return left, right, nil
}

// atomSpans lists the [start,end) rune ranges of atomic runs.
func atomSpans(runs []TextRun) []Span {
	var out []Span
	off := 0
	for _, r := range runs {
		n := r.Len()
		if r.Atomic() && n > 0 {
			out = append(out, Span{Start: off, End: off + n})
		}
		off += n
	}
	return out
}

// widenToAtoms grows [a,b) so neither edge falls strictly inside an atomic run.
func widenToAtoms(runs []TextRun, a, b int) (int, int) {
	for _, sp := range atomSpans(runs) {
		if a > sp.Start && a < sp.End {
			a = sp.Start
		}
		if b > sp.Start && b < sp.End {
			b = sp.End
		}
	}
	return a, b
}

// applyStyleRange assigns tag to the characters [a,b) of runs; an empty tag
// removes the style. Atomic runs touched by the range are restyled whole.
func applyStyleRange(runs []TextRun, tag string, a, b int) []TextRun {
	total := runsLen(runs)
	a = clampInt(a, 0, total)
	b = clampInt(b, 0, total)
	if a > b {
		a, b = b, a
	}
	if a == b {
		return runs
	}
	a, b = widenToAtoms(runs, a, b)

	out := make([]TextRun, 0, len(runs)+2)
	off := 0
	for _, r := range runs {
		n := r.Len()
		rs, re := off, off+n
		off = re
		if re <= a || rs >= b {
			out = append(out, r)
			continue
		}
		if r.Atomic() {
			styled := r.Clone()
			styled.Style = tag
			out = append(out, styled)
			continue
		}
		lo := max(rs, a) - rs
		hi := min(re, b) - rs
		head, rest, _ := SplitRun(r, lo)
		mid, tail, _ := SplitRun(rest, hi-lo)
		mid.Style = tag
		out = append(out, head, mid, tail)
	}
	return normalizeRuns(out)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
