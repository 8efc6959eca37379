package task

// View is the board as rendered: tasks grouped by list name plus the
// distinct list names in the order they were first seen.
type View struct {
	TasksByList   map[string][]Task `json:"tasksByList"`
	ExistingLists []string          `json:"existingLists"`
}

// BuildView groups tasks by list name. Input is expected newest first and
// the relative order inside each group is preserved. Lists with no tasks
// never appear.
func BuildView(tasks []Task) View {
	v := View{
		TasksByList:   make(map[string][]Task),
		ExistingLists: []string{},
	}
	for _, t := range tasks {
		name := t.ListType.String()
		group, seen := v.TasksByList[name]
		if !seen {
			v.ExistingLists = append(v.ExistingLists, name)
		}
		v.TasksByList[name] = append(group, t)
	}
	return v
}

// Lists returns the list names in first-seen order.
func (v View) Lists() []string { return v.ExistingLists }

// Count returns the total number of tasks on the board.
func (v View) Count() int {
	n := 0
	for _, ts := range v.TasksByList {
		n += len(ts)
	}
	return n
}
