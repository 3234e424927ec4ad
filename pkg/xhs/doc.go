// Package xhs provides a client for the Xiaohongshu web API.
//
// This package includes:
//   - A cookie-authenticated HTTP client with proper headers and error handling
//   - Type-safe models for the API's response envelopes
//   - Helper functions for constructing endpoint and canonical note URLs
//   - Built-in error types for better error handling
//
// Example usage:
//
//	client := xhs.NewClient(cookies, "", 30*time.Second, log)
//
//	// Search notes for a keyword
//	page, err := client.SearchNotes(ctx, "医美维权", 1, xhs.SortGeneral, xhs.NoteTypeAll)
//	if err != nil {
//	    if apiErr, ok := err.(*xhs.Error); ok {
//	        switch apiErr.Type {
//	        case xhs.ErrorTypeAuth:
//	            // Session expired, refresh cookies
//	        case xhs.ErrorTypeRateLimit:
//	            // Back off before the next request
//	        }
//	    }
//	}
//
//	// Fetch the full card for each note in the page
//	for _, item := range page.Items {
//	    if item.ModelType != "note" {
//	        continue
//	    }
//	    card, err := client.GetNoteDetail(ctx, xhs.NoteRef{ID: item.ID, XsecToken: item.XsecToken})
//	    // Handle note card
//	}
package xhs
