package note

const (
	saveNoteQuery = `
		MERGE (n:Note {id: $id})
		SET n.text = $text,
			n.created_at = $created_at,
			n.tags = $tags
		RETURN n.id AS id
	`

	recentNotesQuery = `
		MATCH (n:Note)
		RETURN n.id AS id, n.text AS text, n.created_at AS created_at, n.tags AS tags
		ORDER BY n.created_at DESC
		LIMIT $limit
	`
)
