package site

const (
	botPrefix  = "🤖 "
	scorecard  = "@SecureTheNews"
	sitesIndex = "https://securethe.news/sites"
)

// Diff compares one site across two runs and returns the notifications it
// earns, in rule order. old == nil means the site is new this run.
//
// Only improvements are reported; regressions never produce a notification.
func Diff(old *Record, cur Record) []string {
	name := cur.DisplayName()

	if old == nil {
		return []string{botPrefix + "We're tracking a new site on " + scorecard + ": " +
			name + " has a grade of " + cur.Grade + ". " + cur.URL}
	}

	var out []string

	if cur.Grade != old.Grade && cur.Score > old.Score {
		out = append(out, botPrefix+name+" has improved its grade on the "+scorecard+
			" leaderboard from "+old.Grade+" to "+cur.Grade+". "+cur.URL)
	}

	if cur.AvailableOverHTTPS() && !old.AvailableOverHTTPS() {
		out = append(out, botPrefix+name+
			" is now available over HTTPS! Next step: turn it on by default. "+sitesIndex)
	}

	if cur.DefaultsToHTTPS && !old.DefaultsToHTTPS {
		out = append(out, botPrefix+"Great news: "+name+
			" is now using HTTPS by default! Huge win for reader privacy and security. "+sitesIndex)
	}

	if cur.HSTS && !old.HSTS {
		out = append(out, botPrefix+name+
			" is now using HSTS headers. This means browsers will connect to it more securely. Yes! "+sitesIndex)
	}

	if cur.HSTSPreloaded && !old.HSTSPreloaded {
		out = append(out, botPrefix+name+
			" is now on the HSTS preload list for major browsers, protecting user privacy. Bravo. "+sitesIndex)
	}

	return out
}

// Changes diffs every site of cur against prev and returns one group per
// site that earned at least one notification, in cur order.
func Changes(prev, cur Snapshot) [][]string {
	idx := prev.Index()
	var groups [][]string
	for _, r := range cur {
		var old *Record
		if o, ok := idx[r.Name]; ok {
			old = &o
		}
		if msgs := Diff(old, r); len(msgs) > 0 {
			groups = append(groups, msgs)
		}
	}
	return groups
}

// CarryForward returns cur plus the prev record of every unscanned name
// that cur lacks. A tracked site whose scan is briefly missing thus keeps
// its last known state; names prev never had stay out.
func CarryForward(prev, cur Snapshot, unscanned []string) Snapshot {
	if len(unscanned) == 0 || len(prev) == 0 {
		return cur
	}
	old, have := prev.Index(), cur.Index()
	out := append(make(Snapshot, 0, len(cur)+len(unscanned)), cur...)
	for _, name := range unscanned {
		r, ok := old[name]
		if !ok {
			continue
		}
		if _, dup := have[name]; dup {
			continue
		}
		have[name] = r
		out = append(out, r)
	}
	return out
}
