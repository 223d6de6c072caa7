package server

import (
	"fmt"
	"regexp"
	"strings"
)

var commandSplitRe = regexp.MustCompile(`\s+`)

// dispatchCommand handles a single /-prefixed line. The line is split
// into at most three fields so whisper text and room names keep their
// embedded spaces. Replies go only to the issuing session; createroom
// and join additionally broadcast a notice to the room joined.
func (s *Server) dispatchCommand(sess *Session, line string) {
	parts := commandSplitRe.Split(line, 3)
	verb := strings.ToLower(parts[0])

	if s.metrics != nil {
		s.metrics.RecordCommand(strings.TrimPrefix(verb, "/"))
	}

	switch verb {
	case "/help":
		s.sendHelp(sess)
	case "/online":
		s.sendOnlineUsers(sess)
	case "/history":
		s.sendHistory(sess)
	case "/whisper":
		if len(parts) < 3 {
			sess.SendLine("Usage: /whisper <username> <message>")
			return
		}
		s.whisper(sess, parts[1], parts[2])
	case "/createroom":
		if len(parts) < 2 {
			sess.SendLine("Usage: /createroom <roomname>")
			return
		}
		s.createRoom(sess, parts[1])
	case "/join":
		if len(parts) < 2 {
			sess.SendLine("Usage: /join <roomname>")
			return
		}
		s.joinRoom(sess, parts[1])
	default:
		sess.SendLine("Unknown command. Type /help for available commands.")
	}
}

func (s *Server) sendHelp(sess *Session) {
	sess.SendLine("")
	sess.SendLine("Available commands:")
	sess.SendLine("/help - Show this help message")
	sess.SendLine("/online - List all online users")
	sess.SendLine("/history - Show message history")
	sess.SendLine("/whisper <username> <message> - Send private message")
	sess.SendLine("/createroom <roomname> - Create a new chat room")
	sess.SendLine("/join <roomname> - Join an existing chat room")
}

func (s *Server) sendOnlineUsers(sess *Session) {
	users := s.sessions.ListOnline()

	sess.SendLine("")
	sess.SendLine("Online users:")
	for _, user := range users {
		sess.SendLine(fmt.Sprintf("- %s (in room: %s)", user.Username, user.Room))
	}
}

func (s *Server) sendHistory(sess *Session) {
	entries := s.history.Snapshot()

	sess.SendLine("")
	sess.SendLine(fmt.Sprintf("Last %d messages:", len(entries)))
	for _, entry := range entries {
		sess.SendLine(entry)
	}
	sess.SendLine("End of history")
}

func (s *Server) whisper(sess *Session, recipient, text string) {
	if !s.sessions.SendPrivate(sess, recipient, text) {
		sess.SendLine(fmt.Sprintf("User '%s' is not online.", recipient))
	}
}

func (s *Server) createRoom(sess *Session, name string) {
	if err := s.rooms.Create(name); err != nil {
		sess.SendLine(fmt.Sprintf("Room '%s' already exists.", name))
		return
	}

	if err := s.rooms.Join(sess.Username, name); err != nil {
		// Room vanished between create and join; only possible if
		// someone adds room deletion later.
		sess.SendLine(fmt.Sprintf("Room '%s' doesn't exist.", name))
		return
	}
	sess.SetRoom(name)

	sess.SendLine(fmt.Sprintf("Created and joined room: %s", name))
	s.sessions.Broadcast(name, fmt.Sprintf("%s created room: %s", sess.Username, name))
}

func (s *Server) joinRoom(sess *Session, name string) {
	if err := s.rooms.Join(sess.Username, name); err != nil {
		sess.SendLine(fmt.Sprintf("Room '%s' doesn't exist.", name))
		return
	}
	sess.SetRoom(name)

	sess.SendLine(fmt.Sprintf("Joined room: %s", name))
	s.sessions.Broadcast(name, fmt.Sprintf("%s joined room: %s", sess.Username, name))
}
