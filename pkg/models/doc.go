// Package models holds the descriptive model metadata served by the
// listing endpoints. The metadata is decorative: it never influences how
// a request is routed, and every model name is accepted by the inference
// endpoints whether or not it is listed here.
package models
