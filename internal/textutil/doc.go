// Package textutil sanitizes series titles for use as save-path segments and
// download client tags.
package textutil
