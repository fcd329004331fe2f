// Package models defines the persistent data model for the catalog
// sync service: stored credentials, cached catalog songs, and the
// outcome record of each sync run.
package models
