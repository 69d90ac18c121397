package papers

import "encoding/json"

// ZoteroLibrary identifies the library an object belongs to.
type ZoteroLibrary struct {
	Type string `json:"type" yaml:"type"`
	ID   int64  `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ZoteroCreator is an author, editor or other contributor of an item.
type ZoteroCreator struct {
	CreatorType string  `json:"creatorType"         yaml:"creator_type"`
	FirstName   *string `json:"firstName,omitempty" yaml:"first_name,omitempty"`
	LastName    *string `json:"lastName,omitempty"  yaml:"last_name,omitempty"`
	Name        *string `json:"name,omitempty"      yaml:"name,omitempty"`
}

// ZoteroTagRef is a tag attached to an item.
type ZoteroTagRef struct {
	Tag  string `json:"tag"            yaml:"tag"`
	Type *int   `json:"type,omitempty" yaml:"type,omitempty"`
}

// ZoteroItemData is the editable part of an item. Item types carry many more
// fields than listed here; they are kept in Extra.
type ZoteroItemData struct {
	Key          string          `json:"key"                    yaml:"key"`
	Version      int64           `json:"version"                yaml:"version"`
	ItemType     string          `json:"itemType"               yaml:"item_type"`
	Title        *string         `json:"title,omitempty"        yaml:"title,omitempty"`
	Creators     []ZoteroCreator `json:"creators,omitempty"     yaml:"creators,omitempty"`
	Date         *string         `json:"date,omitempty"         yaml:"date,omitempty"`
	DOI          *string         `json:"DOI,omitempty"          yaml:"doi,omitempty"`
	URL          *string         `json:"url,omitempty"          yaml:"url,omitempty"`
	ParentItem   *string         `json:"parentItem,omitempty"   yaml:"parent_item,omitempty"`
	ContentType  *string         `json:"contentType,omitempty"  yaml:"content_type,omitempty"`
	LinkMode     *string         `json:"linkMode,omitempty"     yaml:"link_mode,omitempty"`
	Filename     *string         `json:"filename,omitempty"     yaml:"filename,omitempty"`
	Note         *string         `json:"note,omitempty"         yaml:"note,omitempty"`
	Tags         []ZoteroTagRef  `json:"tags,omitempty"         yaml:"tags,omitempty"`
	Collections  []string        `json:"collections,omitempty"  yaml:"collections,omitempty"`
	DateAdded    *string         `json:"dateAdded,omitempty"    yaml:"date_added,omitempty"`
	DateModified *string         `json:"dateModified,omitempty" yaml:"date_modified,omitempty"`

	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

// UnmarshalJSON keeps the fields not mapped onto the struct in Extra.
func (d *ZoteroItemData) UnmarshalJSON(b []byte) error {
	type plain ZoteroItemData

	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}

	for _, known := range zoteroItemKnownFields {
		delete(all, known)
	}

	if len(all) > 0 {
		p.Extra = all
	}

	*d = ZoteroItemData(p)

	return nil
}

var zoteroItemKnownFields = []string{
	"key", "version", "itemType", "title", "creators", "date", "DOI", "url", "parentItem",
	"contentType", "linkMode", "filename", "note", "tags", "collections", "dateAdded", "dateModified",
}

// ZoteroItemMeta is the read-only metadata Zotero computes for an item.
type ZoteroItemMeta struct {
	CreatorSummary *string `json:"creatorSummary,omitempty" yaml:"creator_summary,omitempty"`
	ParsedDate     *string `json:"parsedDate,omitempty"     yaml:"parsed_date,omitempty"`
	NumChildren    *int    `json:"numChildren,omitempty"    yaml:"num_children,omitempty"`
}

// ZoteroItem is a bibliographic item, attachment or note.
type ZoteroItem struct {
	Key     string         `json:"key"     yaml:"key"`
	Version int64          `json:"version" yaml:"version"`
	Library ZoteroLibrary  `json:"library" yaml:"library"`
	Data    ZoteroItemData `json:"data"    yaml:"data"`
	Meta    ZoteroItemMeta `json:"meta"    yaml:"meta"`
}

// ZoteroCollectionData is the editable part of a collection.
type ZoteroCollectionData struct {
	Key              string          `json:"key"              yaml:"key"`
	Version          int64           `json:"version"          yaml:"version"`
	Name             string          `json:"name"             yaml:"name"`
	ParentCollection json.RawMessage `json:"parentCollection" yaml:"-"`
}

// Parent returns the parent collection key. Zotero sends false for top-level collections.
func (d ZoteroCollectionData) Parent() string {
	var key string
	if err := json.Unmarshal(d.ParentCollection, &key); err != nil {
		return ""
	}

	return key
}

// ZoteroCollectionMeta holds counts Zotero computes for a collection.
type ZoteroCollectionMeta struct {
	NumCollections *int `json:"numCollections,omitempty" yaml:"num_collections,omitempty"`
	NumItems       *int `json:"numItems,omitempty"       yaml:"num_items,omitempty"`
}

// ZoteroCollection is a folder of items.
type ZoteroCollection struct {
	Key     string               `json:"key"     yaml:"key"`
	Version int64                `json:"version" yaml:"version"`
	Library ZoteroLibrary        `json:"library" yaml:"library"`
	Data    ZoteroCollectionData `json:"data"    yaml:"data"`
	Meta    ZoteroCollectionMeta `json:"meta"    yaml:"meta"`
}

// ZoteroTag is a tag with its usage count.
type ZoteroTag struct {
	Tag  string `json:"tag" yaml:"tag"`
	Meta struct {
		Type     *int `json:"type,omitempty"     yaml:"type,omitempty"`
		NumItems *int `json:"numItems,omitempty" yaml:"num_items,omitempty"`
	} `json:"meta" yaml:"meta"`
}

// ZoteroSearch is a saved search.
type ZoteroSearch struct {
	Key     string `json:"key"     yaml:"key"`
	Version int64  `json:"version" yaml:"version"`
	Data    struct {
		Name       string `json:"name" yaml:"name"`
		Conditions []struct {
			Condition string `json:"condition" yaml:"condition"`
			Operator  string `json:"operator"  yaml:"operator"`
			Value     string `json:"value"     yaml:"value"`
		} `json:"conditions" yaml:"conditions"`
	} `json:"data" yaml:"data"`
}

// ZoteroGroup is a group library the user belongs to.
type ZoteroGroup struct {
	ID      int64 `json:"id"      yaml:"id"`
	Version int64 `json:"version" yaml:"version"`
	Data    struct {
		Name        string  `json:"name"                  yaml:"name"`
		Type        string  `json:"type"                  yaml:"type"`
		Description *string `json:"description,omitempty" yaml:"description,omitempty"`
		Owner       int64   `json:"owner"                 yaml:"owner"`
	} `json:"data" yaml:"data"`
	Meta struct {
		NumItems *int `json:"numItems,omitempty" yaml:"num_items,omitempty"`
	} `json:"meta" yaml:"meta"`
}

// ZoteroKeyInfo describes the API key in use.
type ZoteroKeyInfo struct {
	Key      string                     `json:"key"      yaml:"key"`
	UserID   int64                      `json:"userID"   yaml:"user_id"`
	Username string                     `json:"username" yaml:"username"`
	Access   map[string]json.RawMessage `json:"access"   yaml:"-"`
}
