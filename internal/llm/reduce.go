package llm

// DropOldestTurns returns a Reducer that keeps every system message, the
// first non-system turn (the task) and as many of the most recent turns as
// fit in keep messages. An assistant message with tool calls and its tool
// results form one turn and are never split. The most recent turn is always
// kept.
func DropOldestTurns(keep int) Reducer {
	return func(messages []Message) ([]Message, bool) {
		var system []Message
		var turns [][]Message

		for _, m := range messages {
			switch {
			case m.Role == RoleSystem:
				system = append(system, m)
			case m.Role == RoleTool && len(turns) > 0:
				turns[len(turns)-1] = append(turns[len(turns)-1], m)
			default:
				turns = append(turns, []Message{m})
			}
		}

		if len(turns) <= 2 {
			return messages, false
		}

		start := len(turns)
		count := 0
		for start > 1 {
			n := len(turns[start-1])
			if count+n > keep && start < len(turns) {
				break
			}
			count += n
			start--
		}
		if start == 1 {
			return messages, false
		}

		reduced := make([]Message, 0, len(system)+len(turns[0])+count)
		reduced = append(reduced, system...)
		reduced = append(reduced, turns[0]...)
		for _, turn := range turns[start:] {
			reduced = append(reduced, turn...)
		}
		return reduced, true
	}
}
