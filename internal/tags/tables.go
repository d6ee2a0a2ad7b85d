package tags

// Translation tables map lower-cased raw keys to canonical keys. A raw key
// missing from its family's table is used as-is, so identity entries are
// omitted.

var id3Table = map[string]string{
	"talb": "album",
	"tbpm": "bpm",
	"tcmp": "compilation",
	"tcom": "composer",
	"tcon": "genre",
	"tcop": "copyright",
	"tdor": "originaldate",
	"tdrc": "date",
	"tenc": "encodedby",
	"text": "lyricist",
	"tit2": "title",
	"tit3": "version",
	"tlan": "language",
	"tlen": "length",
	"tmed": "media",
	"tmoo": "mood",
	"toly": "author",
	"tory": "originaldate",
	"tpe1": "artist",
	"tpe2": "albumartist",
	"tpe3": "conductor",
	"tpe4": "arranger",
	"tpos": "discnumber",
	"tpub": "organization",
	"trck": "tracknumber",
	"tso2": "albumartistsort",
	"tsoa": "albumsort",
	"tsoc": "composersort",
	"tsop": "artistsort",
	"tsot": "titlesort",
	"tsrc": "isrc",
	"tsst": "discsubtitle",
	"tyer": "date",
	"woar": "website",

	"comm":                        "comment",
	"ufid:http://musicbrainz.org": "musicbrainz_trackid",

	"txxx:asin":                              "asin",
	"txxx:barcode":                           "barcode",
	"txxx:catalognumber":                     "catalognumber",
	"txxx:musicbrainz album artist id":       "musicbrainz_albumartistid",
	"txxx:musicbrainz album id":              "musicbrainz_albumid",
	"txxx:musicbrainz album release country": "releasecountry",
	"txxx:musicbrainz album status":          "musicbrainz_albumstatus",
	"txxx:musicbrainz album type":            "musicbrainz_albumtype",
	"txxx:musicbrainz artist id":             "musicbrainz_artistid",
	"txxx:musicbrainz disc id":               "musicbrainz_discid",
	"txxx:musicbrainz trm id":                "musicbrainz_trmid",
	"txxx:musicip puid":                      "musicip_puid",
	"txxx:musicmagic fingerprint":            "musicip_fingerprint",
}

var mp4Table = map[string]string{
	"\xa9alb": "album",
	"\xa9art": "artist",
	"\xa9cmt": "comment",
	"\xa9day": "date",
	"\xa9gen": "genre",
	"\xa9nam": "title",
	"\xa9too": "encodedby",
	"\xa9wrt": "composer",
	"aart":    "albumartist",
	"cpil":    "compilation",
	"cprt":    "copyright",
	"disk":    "discnumber",
	"tmpo":    "bpm",
	"trkn":    "tracknumber",

	"label":                             "organization",
	"musicbrainz album artist id":       "musicbrainz_albumartistid",
	"musicbrainz album id":              "musicbrainz_albumid",
	"musicbrainz album release country": "releasecountry",
	"musicbrainz album status":          "musicbrainz_albumstatus",
	"musicbrainz album type":            "musicbrainz_albumtype",
	"musicbrainz artist id":             "musicbrainz_artistid",
	"musicbrainz disc id":               "musicbrainz_discid",
	"musicbrainz track id":              "musicbrainz_trackid",
	"musicbrainz trm id":                "musicbrainz_trmid",
	"musicip puid":                      "musicip_puid",
}

var vorbisTable = map[string]string{
	"album artist":               "albumartist",
	"description":                "comment",
	"encoded-by":                 "encodedby",
	"label":                      "organization",
	"musicbrainz_releasetrackid": "musicbrainz_trackid",
	"year":                       "date",
}

// TagLib property names mostly match the canonical set already. The rest of
// this table covers its differing names and raw APEv2 item keys it passes
// through unchanged.
var taglibTable = map[string]string{
	"catalog":       "catalognumber",
	"label":         "organization",
	"original date": "originaldate",
	"publisher":     "organization",
	"releasestatus": "musicbrainz_albumstatus",
	"releasetype":   "musicbrainz_albumtype",
	"subtitle":      "version",
	"url":           "website",
}
