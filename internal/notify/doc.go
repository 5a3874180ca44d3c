// Package notify shows short-lived messages to the user.
//
// Notifications are fire-and-forget: each one is placed on a Host, stays visible
// for its own duration and is removed by its own timer. There is no queue;
// concurrent notifications stack. When the host is missing or fails, the message
// goes to a blocking alert writer instead.
package notify
