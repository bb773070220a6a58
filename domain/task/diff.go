package task

// trackedField pairs a history field name with its canonical string
// accessor. The table replaces runtime reflection: the set of fields
// that produce history records is fixed at compile time.
type trackedField struct {
	name string
	get  func(*Task) string
}

var trackedFields = []trackedField{
	{"Title", func(t *Task) string { return t.Title }},
	{"Description", func(t *Task) string { return t.Description }},
	{"Priority", func(t *Task) string { return t.Priority.String() }},
	{"DueDate", func(t *Task) string { return FormatTime(t.DueDate) }},
	{"AssigneeId", func(t *Task) string { return t.AssigneeID }},
}

// FieldChange is one before/after pair produced by diffing a task
// against a snapshot.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Snapshot captures the mutable fields of a task as canonical strings.
// Absent values snapshot as the empty string, so "no prior value" and
// "empty value" are indistinguishable in the history log.
func Snapshot(t *Task) map[string]string {
	snap := make(map[string]string, len(trackedFields))
	for _, f := range trackedFields {
		snap[f.name] = f.get(t)
	}
	return snap
}

// Diff compares a task against an earlier snapshot and returns one
// FieldChange per field whose canonical value differs, in the fixed
// tracked-field order.
func Diff(before map[string]string, after *Task) []FieldChange {
	var changes []FieldChange
	for _, f := range trackedFields {
		old := before[f.name]
		if cur := f.get(after); cur != old {
			changes = append(changes, FieldChange{Field: f.name, Old: old, New: cur})
		}
	}
	return changes
}
