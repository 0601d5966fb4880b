package response

import "github.com/jinzhu/copier"

// mustCopy copies same-named fields. A failure means the DTO and view
// drifted apart, which is a programming error.
func mustCopy(dst, src any) {
	if err := copier.Copy(dst, src); err != nil {
		panic(err)
	}
}
