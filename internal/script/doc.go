// Package script generates the two-voice podcast dialogue. Each section of
// the paper gets its own focused completion call, which keeps prompts short
// and output quality higher than one monolithic request.
package script
