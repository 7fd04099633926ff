/*
Package semtok provides semantic token support for CHTL documents.

Semantic Tokens Overview:
---------------------------
Semantic highlighting in CHTL is driven by the document's own [Configuration]
block: the aliases it declares are not known to any static grammar, so the
server reports them as keywords.

Architecture:

	CHTL Text                      LSP Server
	     |                             |
	     v                             v
	+------------+   tokens    +--------------+
	| chtlconfig | ----------> |   @semtok    |
	| + scanner  |             +--------------+
	+------------+                    |
	                                  v
	                           relative encoding
	                           [dLine dChar len type mods]

Token Types (legend order):

	keyword class function variable string number operator

Token Modifiers (legend bit order):

	declaration definition readonly static deprecated

Produced tokens:
  - keyword             every configured alias outside strings and comments
  - function+definition the [Configuration] and [Name] markers
*/
package semtok
