package slot

import (
	"sort"
	"strings"
)

type (
	// Schedule maps occupied slots of one class to their subject.
	Schedule map[Index]string

	// Entry is one class lesson inside a merged slot.
	Entry struct {
		Class   string `json:"class"`
		Subject string `json:"subject"`
	}

	// Giant maps slots to every lesson held in them across classes.
	Giant map[Index][]Entry

	// ClassSchedule is the subject → slots map of a single class.
	ClassSchedule struct {
		Class    string
		Subjects map[string][]Index
	}
)

// Invert turns a subject → slots map into a slot → subject map.
// Subjects are visited in name order so a slot listed under two subjects
// consistently ends up with the last one. Out of range slots are dropped.
func Invert(subjects map[string][]Index) Schedule {
	out := make(Schedule)
	for _, subj := range sortedKeys(subjects) {
		for _, i := range subjects[subj] {
			if i.Valid() {
				out[i] = subj
			}
		}
	}
	return out
}

// Merge unions the schedules of several classes, in the given order.
// Every lesson is kept: slots shared by many classes list them all.
func Merge(classes []ClassSchedule) Giant {
	out := make(Giant)
	for _, cls := range classes {
		for _, subj := range sortedKeys(cls.Subjects) {
			for _, i := range cls.Subjects[subj] {
				if i.Valid() {
					out[i] = append(out[i], Entry{Class: cls.Class, Subject: subj})
				}
			}
		}
	}
	return out
}

// Slots lists the occupied slots in ascending order.
func (s Schedule) Slots() []Index {
	out := make([]Index, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Slots lists the occupied slots in ascending order.
func (g Giant) Slots() []Index {
	out := make([]Index, 0, len(g))
	for i := range g {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// Conflicts lists the slots holding more than one lesson.
func (g Giant) Conflicts() []Index {
	out := make([]Index, 0)
	for _, i := range g.Slots() {
		if len(g[i]) > 1 {
			out = append(out, i)
		}
	}
	return out
}

// CellText renders a slot as "class: subject" lines.
func (g Giant) CellText(i Index) string {
	entries := g[i]
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.Class+": "+e.Subject)
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string][]Index) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
