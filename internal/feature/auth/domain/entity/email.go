package entity

// Email is a transactional message handed to the notification sender.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}
