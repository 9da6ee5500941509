package comments

// Short comment.
func Short() {}

// This comment is definitely longer than the eighty characters that are allowed. // want "Comment too long"
func Long() {}

//go:generate this line is ignored by the check even when it is longer than the limit
func Generated() {}
