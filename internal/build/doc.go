// Package build drives a site build through its stages:
// Loading, Resolving, Transforming, Composing and Rendering.
//
// Every build writes into a private staging directory next to the configured output.
// Only a build that reaches Done replaces the live output, by renaming the staging
// directory into place; a failed or canceled build leaves the previous output untouched.
package build
