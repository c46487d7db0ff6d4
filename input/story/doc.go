/*
Package story holds the input model of a reader pack: the learner profile,
the generation request and the stories returned by a text generator.

Requests are validated before any service is called (see Request.Validate),
and free-text topics are sanitized into short labels. The package also
builds the prompts for a text generation model and parses the model's JSON
output into stories.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package story
