package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanHTML(t *testing.T) {
	in := `<h1>Auth&nbsp;Design</h1>
<script>alert('x')</script><style>p{color:red}</style>
<p>Users must <strong>authenticate</strong> via OAuth2 &amp; OIDC.</p>
<!-- hidden -->
<ul><li>Tokens expire</li><li>Refresh   tokens rotate</li></ul>
<ac:structured-macro ac:name="code"><ac:plain-text-body><![CDATA[GET /token]]></ac:plain-text-body></ac:structured-macro>`

	out := CleanHTML(in)

	assert.Equal(t, "Auth Design\nUsers must authenticate via OAuth2 & OIDC.\nTokens expire\nRefresh tokens rotate\nGET /token", out)
}

func TestCleanHTML_Empty(t *testing.T) {
	assert.Equal(t, "", CleanHTML(""))
	assert.Equal(t, "", CleanHTML("   "))
	assert.Equal(t, "", CleanHTML("<p></p><br/>"))
}
