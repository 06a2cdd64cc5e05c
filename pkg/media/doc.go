// Package media holds the host-native media values exchanged with the editor
// (image batches and audio clips), the file-extension classification used by
// type inference, and the codecs that turn those values into data URIs and
// fetched URLs back into values.
package media
