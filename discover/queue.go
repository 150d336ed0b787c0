// Package discover — ordered id set.
// WIQL can list the same item twice when a title match and an id match
// coincide; the set keeps the first occurrence and enforces the result cap.
package discover

// Queue is an insertion-ordered set of work item ids with an optional cap.
type Queue struct {
	items []int
	seen  map[int]bool
	limit int // 0 means unlimited
}

// NewQueue creates an empty Queue holding at most limit ids.
func NewQueue(limit int) *Queue {
	return &Queue{
		seen:  make(map[int]bool),
		limit: limit,
	}
}

// Add appends id unless it was seen before or the queue is full. It
// reports whether the id was added.
func (q *Queue) Add(id int) bool {
	if q.seen[id] || q.Full() {
		return false
	}
	q.seen[id] = true
	q.items = append(q.items, id)
	return true
}

// Full reports whether the cap has been reached.
func (q *Queue) Full() bool {
	return q.limit > 0 && len(q.items) >= q.limit
}

// Len returns the number of ids held.
func (q *Queue) Len() int {
	return len(q.items)
}

// All returns the ids in insertion order.
func (q *Queue) All() []int {
	return q.items
}
