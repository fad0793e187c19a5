package elasticsearch

// DefaultIndexName is the index holding store documents.
const DefaultIndexName = "stores"

// indexMapping analyses name and description with the english analyzer
// and maps location as a geo_point for distance queries.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "id":          { "type": "keyword" },
      "slug":        { "type": "keyword" },
      "name":        { "type": "text", "analyzer": "english", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "description": { "type": "text", "analyzer": "english" },
      "tags":        { "type": "keyword" },
      "location":    { "type": "geo_point" },
      "address":     { "type": "keyword", "index": false },
      "photo":       { "type": "keyword", "index": false },
      "author":      { "type": "keyword" },
      "created":     { "type": "date" }
    }
  }
}`
