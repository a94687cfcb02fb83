// Package account is the change-notification demonstration domain: users
// with a one-to-one profile. Saving a user raises pre_save and post_save
// signals; the ProfileHandler reacts to a post_save with Created set by
// creating the user's profile in the same unit of work.
package account
