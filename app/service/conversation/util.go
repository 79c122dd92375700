package conversation

func lastMessages(messages []Message, n int) []Message {
	if len(messages) <= n {
		return messages
	}

	return messages[len(messages)-n:]
}
