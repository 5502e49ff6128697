package hub

import "github.com/mb0/xelf/cor"

// Service is the common interface for the last message processor in line. It
// is usually wrapped by handlers for sign-on, authorization and parsing.
type Service interface {
	// Serve handles the message and returns response data, nil or an error.
	Serve(*Msg) (interface{}, error)
}

// ServiceFunc implements Service for simple handler functions.
type ServiceFunc func(*Msg) (interface{}, error)

func (f ServiceFunc) Serve(m *Msg) (interface{}, error) { return f(m) }

// Services is a map of message subjects to service processors.
type Services map[string]Service

// Handle calls the service registered for m's subject or returns an error.
// If the service returns data and from is not nil, a response with the
// request token is sent back to the sender.
func (s Services) Handle(m *Msg, from Conn) error {
	f := s[m.Subj]
	if f == nil {
		return cor.Errorf("subject not supported %s", m.Subj)
	}
	res, err := f.Serve(m)
	if err != nil {
		return err
	}
	if res != nil && from != nil {
		m.From.Chan() <- &Msg{From: from, Subj: m.Subj, Tok: m.Tok, Data: res}
	}
	return nil
}
