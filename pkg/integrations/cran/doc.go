// Package cran fetches and parses package DESCRIPTION files from the
// Comprehensive R Archive Network.
//
// CRAN has no JSON metadata API for maintainers. Each package publishes a
// Debian-control-style DESCRIPTION file at
// https://cran.r-project.org/web/packages/{name}/DESCRIPTION whose
// Maintainer field reads "Name <email>". [ParseDescription] reads the fields
// and [Description.MaintainerName] / [Description.MaintainerEmail] split the
// maintainer line.
//
// Only the first Maintainer field is used; CRAN allows exactly one.
package cran
